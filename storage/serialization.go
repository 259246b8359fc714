// Copyright 2025 Poiesic Systems
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


package storage

import (
	"fmt"

	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/docsift/core"
)

// MarshalVector serializes a vector as a varint length followed by raw float32 values.
func MarshalVector(vector []float32) []byte {
	size := varint.Int.Size(len(vector))
	for _, f := range vector {
		size += raw.Float32.Size(f)
	}
	buf := make([]byte, size)
	n := varint.Int.Marshal(len(vector), buf)
	for _, f := range vector {
		n += raw.Float32.Marshal(f, buf[n:])
	}
	return buf
}

// UnmarshalVector deserializes a vector written by MarshalVector.
func UnmarshalVector(data []byte) ([]float32, error) {
	length, n, err := varint.Int.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	if length < 0 || length*4 > len(data)-n {
		return nil, ErrTruncatedData
	}
	vector := make([]float32, length)
	for i := range vector {
		f, m, err := raw.Float32.Unmarshal(data[n:])
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
		}
		vector[i] = f
		n += m
	}
	return vector, nil
}

// MarshalRun serializes a RunRecord to bytes.
func MarshalRun(run *core.RunRecord) []byte {
	buf := make([]byte, core.RunRecordMUS.Size(*run))
	core.RunRecordMUS.Marshal(*run, buf)
	return buf
}

// UnmarshalRun deserializes a RunRecord from bytes. StartedAt comes back in UTC.
func UnmarshalRun(data []byte) (*core.RunRecord, error) {
	run, _, err := core.RunRecordMUS.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	run.StartedAt = run.StartedAt.UTC()
	return &run, nil
}
