package store

import (
	"math"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"rag-chatbot-platform/models"
)

func TestL2Distance(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 0},
		{"unit apart", []float32{0, 0}, []float32{1, 0}, 1},
		{"pythagorean", []float32{0, 0}, []float32{3, 4}, 5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := L2Distance(tc.a, tc.b)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("L2Distance(%v, %v) = %f, want %f", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestDeleteCounterDeltas(t *testing.T) {
	cases := []struct {
		name          string
		doc           *models.Document
		deletedChunks int
		wantOK        bool
		wantFiles     int
		wantChunks    int
	}{
		{"completed", &models.Document{KnowledgeBaseID: "kb1", Status: models.StatusCompleted}, 7, true, -1, -7},
		{"processing never counted", &models.Document{KnowledgeBaseID: "kb1", Status: models.StatusProcessing}, 0, false, 0, 0},
		{"failed never counted", &models.Document{KnowledgeBaseID: "kb1", Status: models.StatusFailed}, 3, false, 0, 0},
		{"bot scope has no counters", &models.Document{BotID: "bot1", Status: models.StatusCompleted}, 5, false, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			files, chunks, ok := deleteCounterDeltas(tc.doc, tc.deletedChunks)
			if ok != tc.wantOK || files != tc.wantFiles || chunks != tc.wantChunks {
				t.Errorf("deltas = (%d, %d, %v), want (%d, %d, %v)",
					files, chunks, ok, tc.wantFiles, tc.wantChunks, tc.wantOK)
			}
		})
	}
}

func TestClampedAddFloorsAtZero(t *testing.T) {
	expr := clampedAdd("$file_count", -1)
	max, ok := expr["$max"].(bson.A)
	if !ok || len(max) != 2 {
		t.Fatalf("expected $max expression, got %v", expr)
	}
	if max[0] != 0 {
		t.Errorf("floor = %v, want 0", max[0])
	}
}

func TestStatusUpdateClearsStaleError(t *testing.T) {
	update := statusUpdate(models.StatusCompleted, "", 4)
	set := update["$set"].(bson.M)
	if _, present := set["error_message"]; present {
		t.Error("completed transition must not set an error message")
	}
	unset, ok := update["$unset"].(bson.M)
	if !ok {
		t.Fatalf("expected $unset clearing error_message, got %v", update)
	}
	if _, present := unset["error_message"]; !present {
		t.Errorf("$unset = %v", unset)
	}

	update = statusUpdate(models.StatusFailed, "extraction failed", 0)
	set = update["$set"].(bson.M)
	if set["error_message"] != "extraction failed" {
		t.Errorf("failed transition lost its message: %v", set)
	}
	if _, present := update["$unset"]; present {
		t.Error("failed transition must keep its error message")
	}
}

func TestScopeFilterShapes(t *testing.T) {
	f := scopeFilter(models.ScopeSet{KnowledgeBaseIDs: []string{"kb1", "kb2"}, BotID: "bot1"})
	or, ok := f["$or"].([]bson.M)
	if !ok || len(or) != 2 {
		t.Fatalf("expected two $or branches, got %v", f)
	}

	f = scopeFilter(models.ScopeSet{BotID: "bot1"})
	or, _ = f["$or"].([]bson.M)
	if len(or) != 1 {
		t.Fatalf("expected single bot branch, got %v", f)
	}
	if or[0]["bot_id"] != "bot1" {
		t.Errorf("expected bot_id filter, got %v", or[0])
	}
}
