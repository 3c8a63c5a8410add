package core

import "testing"

func TestDiaryRecordsInOrder(t *testing.T) {
	EnableDiary(true)
	defer EnableDiary(false)
	ClearDiary()

	critical(func() {
		diaryRecord(CondStart, ActSendAddressW, 0x40)
		diaryRecord(CondMTSlaACK, ActSendByte, 0x01)
		diaryRecord(CondMTDataACK, ActFinished, 0)
	})

	got := DiaryEntries()
	if len(got) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(got))
	}
	if got[0].Condition != CondStart || got[0].Action != ActSendAddressW || got[0].Value != 0x40 {
		t.Errorf("Unexpected first entry: %+v", got[0])
	}
	if got[2].Action != ActFinished {
		t.Errorf("Expected last entry ActFinished, got %+v", got[2])
	}
}

func TestDiaryRingOverwritesOldest(t *testing.T) {
	EnableDiary(true)
	defer EnableDiary(false)
	ClearDiary()

	critical(func() {
		for i := 0; i < DiarySize+5; i++ {
			diaryRecord(CondMTDataACK, ActSendByte, uint8(i))
		}
	})

	got := DiaryEntries()
	if len(got) != DiarySize {
		t.Fatalf("Expected ring capped at %d entries, got %d", DiarySize, len(got))
	}
	if got[0].Value != 5 {
		t.Errorf("Expected oldest surviving entry value 5, got %d", got[0].Value)
	}
	if got[len(got)-1].Value != uint8(DiarySize+4) {
		t.Errorf("Expected newest entry value %d, got %d", DiarySize+4, got[len(got)-1].Value)
	}
}

func TestDumpDiaryWritesThroughDebugWriter(t *testing.T) {
	EnableDiary(true)
	defer EnableDiary(false)
	ClearDiary()

	critical(func() {
		diaryRecord(CondStart, ActSendAddressW, 0x40)
		diaryRecord(CondMTSlaNACK, ActRetryStart, 1)
	})

	var lines []string
	SetDebugWriter(func(s string) { lines = append(lines, s) })
	defer SetDebugWriter(func(string) {})

	DumpDiary()
	if len(lines) != 2 {
		t.Fatalf("Expected 2 lines, got %d: %q", len(lines), lines)
	}
	if lines[0] != "cond=0x08 act=8 val=0x40" {
		t.Errorf("Unexpected first line: %q", lines[0])
	}
	if lines[1] != "cond=0x20 act=17 val=0x01" {
		t.Errorf("Unexpected second line: %q", lines[1])
	}
}

func TestDiaryDisabledRecordsNothing(t *testing.T) {
	EnableDiary(false)
	ClearDiary()

	critical(func() {
		diaryRecord(CondStart, ActSendByte, 1)
	})
	if got := DiaryEntries(); len(got) != 0 {
		t.Errorf("Expected no entries while disabled, got %d", len(got))
	}
}
