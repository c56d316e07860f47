package fluid

import (
	"errors"
	"testing"

	"github.com/gogpu/fluid/backend/software"
	"github.com/gogpu/fluid/gpucore"
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name        string
		unsupported []gpucore.TextureFormat
		want        Formats
	}{
		{
			name: "all half float",
			want: Formats{
				RGBA: gpucore.TextureFormatRGBA16Float,
				RG:   gpucore.TextureFormatRG16Float,
				R:    gpucore.TextureFormatR16Float,
			},
		},
		{
			name:        "no single channel",
			unsupported: []gpucore.TextureFormat{gpucore.TextureFormatR16Float},
			want: Formats{
				RGBA: gpucore.TextureFormatRGBA16Float,
				RG:   gpucore.TextureFormatRG16Float,
				R:    gpucore.TextureFormatRG16Float,
			},
		},
		{
			name: "only rgba",
			unsupported: []gpucore.TextureFormat{
				gpucore.TextureFormatR16Float, gpucore.TextureFormatRG16Float,
			},
			want: Formats{
				RGBA: gpucore.TextureFormatRGBA16Float,
				RG:   gpucore.TextureFormatRGBA16Float,
				R:    gpucore.TextureFormatRGBA16Float,
			},
		},
		{
			name:        "no half float rgba",
			unsupported: []gpucore.TextureFormat{gpucore.TextureFormatRGBA16Float},
			want: Formats{
				RGBA: gpucore.TextureFormatRGBA32Float,
				RG:   gpucore.TextureFormatRG32Float,
				R:    gpucore.TextureFormatR32Float,
			},
		},
		{
			name: "nothing",
			unsupported: []gpucore.TextureFormat{
				gpucore.TextureFormatR16Float, gpucore.TextureFormatRG16Float, gpucore.TextureFormatRGBA16Float,
				gpucore.TextureFormatR32Float, gpucore.TextureFormatRG32Float, gpucore.TextureFormatRGBA32Float,
			},
			want: Formats{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := software.New(4, 4, software.WithUnsupportedFormats(tt.unsupported...), software.WithoutLinearFiltering())
			defer ctx.Destroy()

			got, err := Negotiate(ctx)
			if err != nil {
				t.Fatalf("Negotiate() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Negotiate() = %+v, want %+v", got, tt.want)
			}
			if live := ctx.Live().Total(); live != 0 {
				t.Errorf("Live().Total() = %d after probing, want 0", live)
			}
		})
	}
}

func TestNegotiateLinearFiltering(t *testing.T) {
	ctx := software.New(4, 4)
	defer ctx.Destroy()

	got, err := Negotiate(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !got.LinearFiltering {
		t.Error("LinearFiltering = false, want true")
	}
	if got.Filter() != gpucore.FilterLinear {
		t.Errorf("Filter() = %v, want Linear", got.Filter())
	}
}

func TestNegotiateNilContext(t *testing.T) {
	if _, err := Negotiate(nil); !errors.Is(err, ErrNoContext) {
		t.Errorf("Negotiate(nil) = %v, want ErrNoContext", err)
	}
}
