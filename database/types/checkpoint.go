// Copyright 2025 Blink Labs Software
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

package types

// CommitCheckpoint is written to both stores by every read-write commit. The
// blob store commits first, so stores holding different checkpoints mean the
// last commit only reached the blob store
type CommitCheckpoint struct {
	Timestamp  int64
	JournalSeq uint64
}

// IsZero reports whether no commit has been recorded
func (c CommitCheckpoint) IsZero() bool {
	return c.Timestamp == 0 && c.JournalSeq == 0
}
