// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package terminal

import "testing"

func TestLinesFor(t *testing.T) {
	tests := []struct {
		length, width, want int
	}{
		{0, 80, 1},
		{1, 80, 1},
		{80, 80, 1},
		{81, 80, 2},
		{200, 80, 3},
		{10, 0, 1},
	}
	for _, tt := range tests {
		if got := linesFor(tt.length, tt.width); got != tt.want {
			t.Errorf("linesFor(%d, %d) = %d, want %d", tt.length, tt.width, got, tt.want)
		}
	}
}
