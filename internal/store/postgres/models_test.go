package postgres

import (
	"reflect"
	"testing"
	"time"

	"github.com/workplace-hygiene/noiseexposure/internal/store/storetest"
	"github.com/workplace-hygiene/noiseexposure/pkg/exposure"
)

func TestInvestigationModelRoundTrip(t *testing.T) {
	want := storetest.Investigation("inv-1")
	now := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("CET", 3600))

	model, err := toInvestigationModel(want, now)
	if err != nil {
		t.Fatalf("toInvestigationModel: %v", err)
	}
	if model.ID != "inv-1" || model.Name != want.Name {
		t.Errorf("model = %+v", model)
	}
	if model.UpdatedAt.Location() != time.UTC || !model.UpdatedAt.Equal(now) {
		t.Errorf("updated at = %v, expected %v in UTC", model.UpdatedAt, now)
	}

	got, err := fromInvestigationModel(model)
	if err != nil {
		t.Fatalf("fromInvestigationModel: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip differs\n got: %+v\nwant: %+v", got, want)
	}
}

func TestFromInvestigationModelRejectsBadSnapshot(t *testing.T) {
	if _, err := fromInvestigationModel(Investigation{ID: "x", Snapshot: "{"}); err == nil {
		t.Error("expected an error for a truncated snapshot")
	}
}

func TestRunModel(t *testing.T) {
	stats := exposure.ComputeAllStatistics(storetest.Investigation("inv-1"))

	run, err := toRunModel("6f1c1d2e-0000-4000-8000-000000000001", "inv-1", stats, time.Now())
	if err != nil {
		t.Fatalf("toRunModel: %v", err)
	}
	if len(run.Groups) != len(stats) {
		t.Fatalf("expected %d group rows, got %d", len(stats), len(run.Groups))
	}
	for i, row := range run.Groups {
		if row.Position != i || row.GroupID != stats[i].GroupID || row.RunID != run.ID {
			t.Errorf("row %d = %+v", i, row)
		}
		if row.Verdict != string(stats[i].Verdict) || row.LEX8hUpper != stats[i].LEX8hUpper {
			t.Errorf("row %d summary columns = %+v", i, row)
		}
	}

	got, err := fromGroupStatistics(run.Groups)
	if err != nil {
		t.Fatalf("fromGroupStatistics: %v", err)
	}
	if !reflect.DeepEqual(got, stats) {
		t.Errorf("statistics differ after a round trip")
	}
}
