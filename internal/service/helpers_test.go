package service

import (
	"github.com/rs/zerolog"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func strPtr(s string) *string {
	return &s
}

func intPtr(i int) *int {
	return &i
}
