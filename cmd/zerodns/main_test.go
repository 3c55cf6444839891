// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zerodns-io/zerodns/internal/wire"
)

func TestExitCodeConfigErrorIsOne(t *testing.T) {
	err := wire.Errorf(wire.KindConfig, "cmd.test", errors.New("bad config"))
	require.Equal(t, 1, exitCode(err))
}

func TestExitCodeOtherWireKindIsTwo(t *testing.T) {
	err := wire.Errorf(wire.KindUpstream, "cmd.test", errors.New("upstream failed"))
	require.Equal(t, 2, exitCode(err))
}

func TestExitCodePlainErrorIsTwo(t *testing.T) {
	require.Equal(t, 2, exitCode(errors.New("boom")))
}
