package fluid

import "testing"

func TestResolution(t *testing.T) {
	tests := []struct {
		res, width, height int
		w, h               int
	}{
		{128, 100, 100, 128, 128},
		{128, 200, 100, 256, 128},
		{128, 100, 200, 128, 256},
		{1024, 1920, 1080, 1820, 1024},
		{256, 0, 0, 256, 256},
		{16, 3, 1, 48, 16},
	}
	for _, tt := range tests {
		w, h := Resolution(tt.res, tt.width, tt.height)
		if w != tt.w || h != tt.h {
			t.Errorf("Resolution(%d, %d, %d) = (%d, %d), want (%d, %d)", tt.res, tt.width, tt.height, w, h, tt.w, tt.h)
		}
	}
}
