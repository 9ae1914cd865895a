// Copyright 2022 Piprate Limited
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package zero overwrites sensitive byte slices in place once a caller is
// done with them. It does not guarantee the compiler won't have produced
// other copies, but it closes the easy window.
package zero

// Bytes overwrites b with zero bytes in place.
func Bytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
