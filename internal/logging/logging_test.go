// Copyright (c) 2025 Assettrack
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"errors"
	"strings"
	"testing"
)

func TestParseGRPCError(t *testing.T) {
	tests := []struct {
		msg  string
		want GRPCErrorType
	}{
		{"rpc error: code = Unavailable desc = connection error", GRPCErrorUnavailable},
		{"rpc error: code = DeadlineExceeded desc = context deadline exceeded", GRPCErrorTimeout},
		{"stream terminated by RST_STREAM with error code: INTERNAL_ERROR", GRPCErrorNetwork},
		{"rpc error: code = Internal desc = boom", GRPCErrorInternal},
		{"rpc error: code = Unauthenticated desc = no token", GRPCErrorAuth},
		{"rpc error: code = FailedPrecondition desc = position out of range", GRPCErrorUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			if got := ParseGRPCError(tt.msg); got != tt.want {
				t.Errorf("ParseGRPCError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatStreamErrorMasks(t *testing.T) {
	out := FormatStreamError("rows:7070", "dial postgres://u:secret@db/x: unavailable")
	if strings.Contains(out, "secret") {
		t.Errorf("output leaks credentials: %q", out)
	}
	if !strings.Contains(out, "rows:7070") {
		t.Errorf("output does not name the server: %q", out)
	}
}

func TestPresentError(t *testing.T) {
	if PresentError("ctx", nil) != "" {
		t.Error("PresentError(nil) != \"\"")
	}
	got := PresentError("connect", errors.New("postgres://u:p@h/db refused"))
	if got != "connect: postgres://*:*@h/db refused" {
		t.Errorf("PresentError() = %q", got)
	}
}

func TestSetVerbose(t *testing.T) {
	t.Setenv(EnvVerbose, "")
	if Verbose() {
		t.Fatal("Verbose() with empty env")
	}
	SetVerbose(true)
	if !Verbose() {
		t.Error("Verbose() after SetVerbose(true) = false")
	}
	SetVerbose(false)
	if Verbose() {
		t.Error("Verbose() after SetVerbose(false) = true")
	}
}
