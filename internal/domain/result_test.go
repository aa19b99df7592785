package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResult_Success(t *testing.T) {
	r := Success()
	assert.True(t, r.OK())
	assert.Equal(t, KindNone, r.Kind)
	assert.Equal(t, "ok", r.String())
}

func TestResult_Failure(t *testing.T) {
	r := Failure(KindBuildMissing, "frontend build %s not found", "/p/frontend/build")
	assert.False(t, r.OK())
	assert.Equal(t, KindBuildMissing, r.Kind)
	assert.Equal(t, "build_missing: frontend build /p/frontend/build not found", r.String())
}

func TestResult_FailureDefaultsKind(t *testing.T) {
	r := Failure(KindNone, "boom")
	assert.False(t, r.OK())
	assert.Equal(t, KindCommandFailed, r.Kind)
}

func TestJoin(t *testing.T) {
	tests := []struct {
		name       string
		in         []Result
		wantOK     bool
		wantKind   FailureKind
		wantDetail string
	}{
		{"empty", nil, true, KindNone, ""},
		{"all ok", []Result{Success(), Success()}, true, KindNone, ""},
		{"one failure", []Result{Success(), Failure(KindCommandFailed, "npm test")}, false, KindCommandFailed, "npm test"},
		{
			"first kind wins",
			[]Result{Failure(KindPathMissing, "backend"), Failure(KindCommandFailed, "npm test")},
			false, KindPathMissing, "backend; npm test",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Join(tt.in...)
			assert.Equal(t, tt.wantOK, got.OK())
			assert.Equal(t, tt.wantKind, got.Kind)
			assert.Equal(t, tt.wantDetail, got.Detail)
		})
	}
}
