package sim

import (
	"errors"
	"testing"
)

func TestParametersValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Parameters)
		wantErr error
	}{
		{"defaults ok", func(p *Parameters) {}, nil},
		{"start equals end", func(p *Parameters) { p.EndFrame = p.StartFrame }, ErrFrameRange},
		{"start after end", func(p *Parameters) { p.StartFrame = p.EndFrame + 5 }, ErrFrameRange},
		{"span too long", func(p *Parameters) { p.EndFrame = p.StartFrame + MaxFrameSpan + 1 }, ErrSpanTooLong},
		{"span at cap ok", func(p *Parameters) { p.EndFrame = p.StartFrame + MaxFrameSpan }, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := DefaultParameters()
			tc.mutate(&p)
			err := p.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestBlendingThreshold(t *testing.T) {
	p := DefaultParameters()

	p.BakeWeight = 1.0
	if p.blending() {
		t.Error("weight 1.0 should not blend")
	}
	p.BakeWeight = 0.999
	if p.blending() {
		t.Error("weight 0.999 should not blend")
	}
	p.BakeWeight = 0.998
	if !p.blending() {
		t.Error("weight 0.998 should blend")
	}
}

func TestBlendModeString(t *testing.T) {
	if BlendOverride.String() != "override" || BlendAdditive.String() != "additive" {
		t.Errorf("mode strings: %s, %s", BlendOverride, BlendAdditive)
	}
}
