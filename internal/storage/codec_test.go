package storage

import (
	"errors"
	"testing"

	"tspevo/internal/model"
)

func TestRunCodecRoundTrip(t *testing.T) {
	input := testRun("run-1", "2026-08-27T10:00:00Z")

	data, err := EncodeRun(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	output, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if output.RunID != input.RunID || output.BestDistance != input.BestDistance {
		t.Fatalf("unexpected run: %+v", output)
	}
	if output.Config.Crossover != "OX" {
		t.Fatalf("config lost in round trip: %+v", output.Config)
	}
}

func TestDecodeRunRejectsVersionMismatch(t *testing.T) {
	run := testRun("run-1", "2026-08-27T10:00:00Z")
	run.SchemaVersion = CurrentSchemaVersion + 1

	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRun(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("want ErrVersionMismatch, got %v", err)
	}
}

func TestDecodeRunRejectsGarbage(t *testing.T) {
	if _, err := DecodeRun([]byte("{not json")); err == nil {
		t.Fatal("decode accepted malformed payload")
	}
}

func TestHistoryCodecRoundTrip(t *testing.T) {
	input := []model.GenerationRecord{
		{Generation: 0, BestDistance: 9000, AverageDistance: 9500, Diversity: 1.0},
	}
	data, err := EncodeHistory(input)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	output, err := DecodeHistory(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(output) != 1 || output[0].BestDistance != 9000 {
		t.Fatalf("unexpected history: %+v", output)
	}
}
