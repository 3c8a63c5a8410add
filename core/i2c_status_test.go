package core

import "testing"

func TestStatusTerminal(t *testing.T) {
	cases := []struct {
		s        StatusCode
		terminal bool
		failed   bool
	}{
		{StatusCompletedOk, true, false},
		{StatusNotStarted, false, false},
		{StatusInProgress, false, false},
		{StatusTxPartial, true, true},
		{StatusRxOverflow, true, true},
		{StatusCode(CondMTSlaNACK) | StatusError, true, true},
	}
	for _, tc := range cases {
		if got := tc.s.Terminal(); got != tc.terminal {
			t.Errorf("%v: expected Terminal=%v, got %v", tc.s, tc.terminal, got)
		}
		if got := tc.s.Failed(); got != tc.failed {
			t.Errorf("%v: expected Failed=%v, got %v", tc.s, tc.failed, got)
		}
	}
}

func TestStatusCause(t *testing.T) {
	s := StatusCode(CondMRSlaNACK) | StatusError
	cond, ok := s.Cause()
	if !ok {
		t.Fatal("Expected error status to expose its bus condition")
	}
	if cond != CondMRSlaNACK {
		t.Errorf("Expected condition %#02x, got %#02x", uint8(CondMRSlaNACK), uint8(cond))
	}

	if _, ok := StatusCompletedOk.Cause(); ok {
		t.Error("Expected no cause for a completed status")
	}
	if _, ok := StatusRxOverflow.Cause(); ok {
		t.Error("Expected no cause for overflow, it is not condition-coded")
	}
}

func TestSendErrorErrOrNil(t *testing.T) {
	if err := sendOK.errOrNil(); err != nil {
		t.Errorf("Expected nil for sendOK, got %v", err)
	}
	if err := ErrTxBufferFull.errOrNil(); err == nil {
		t.Error("Expected error for ErrTxBufferFull")
	}
}
