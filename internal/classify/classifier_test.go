package classify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/nahuelp/clipstack/internal/domain"
	"github.com/nahuelp/clipstack/internal/llm"
)

// fakeGenerator returns a canned response or error and records the prompt.
type fakeGenerator struct {
	response string
	err      error
	prompt   string
	calls    int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, opts llm.Options) (string, error) {
	f.calls++
	f.prompt = prompt
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testTaxonomy() ([]domain.Area, []domain.Topic) {
	areas := []domain.Area{
		{ID: 1, Name: "Salud y Fitness"},
		{ID: 3, Name: "Dinero y Finanzas"},
		{ID: 7, Name: "Crecimiento Personal"},
	}
	topics := []domain.Topic{
		{ID: 11, AreaID: 1, Name: "Entrenamiento"},
		{ID: 31, AreaID: 3, Name: "Inversiones"},
		{ID: 32, AreaID: 3, Name: "Ahorro"},
		{ID: 71, AreaID: 7, Name: "Hábitos"},
	}
	return areas, topics
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "bare object",
			raw:  `{"area_id": 3}`,
			want: `{"area_id": 3}`,
		},
		{
			name: "object wrapped in prose",
			raw:  "Claro, aquí está el resultado:\n{\"area_id\": 3, \"topic_ids\": [31]}\nEspero que ayude.",
			want: `{"area_id": 3, "topic_ids": [31]}`,
		},
		{
			name: "braces inside strings ignored",
			raw:  `{"area_id": 3, "note": "look {here}"}`,
			want: `{"area_id": 3, "note": "look {here}"}`,
		},
		{
			name:    "no object at all",
			raw:     "no puedo clasificar este video",
			wantErr: true,
		},
		{
			name:    "unbalanced object",
			raw:     `{"area_id": 3`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractJSON(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseModelResponse(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantArea  int64
		wantScore float64
		wantErr   bool
	}{
		{
			name:      "clean response",
			raw:       `{"area_id": 3, "topic_ids": [31, 32], "confianza": "alta"}`,
			wantArea:  3,
			wantScore: 0.9,
		},
		{
			name:      "unquoted confidence value repaired",
			raw:       `{"area_id": 7, "topic_ids": [], "confianza": media}`,
			wantArea:  7,
			wantScore: 0.6,
		},
		{
			name:      "unknown confidence label defaults low",
			raw:       `{"area_id": 1, "topic_ids": [], "confianza": "altisima"}`,
			wantArea:  1,
			wantScore: 0.3,
		},
		{
			name:    "missing area_id",
			raw:     `{"topic_ids": [31], "confianza": "alta"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			raw:     "lo siento, no puedo",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, score, err := parseModelResponse(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if resp.AreaID != tt.wantArea {
				t.Errorf("area = %d, want %d", resp.AreaID, tt.wantArea)
			}
			if !almostEqual(score, tt.wantScore) {
				t.Errorf("score = %v, want %v", score, tt.wantScore)
			}
		})
	}
}

func TestClassifyWithTranscript(t *testing.T) {
	areas, topics := testTaxonomy()
	gen := &fakeGenerator{response: `{"area_id": 3, "topic_ids": [31, 32, 71], "confianza": "alta"}`}
	c := NewClassifier(gen, areas, topics)

	out, err := c.Classify(context.Background(), Input{
		Title:      "Cómo invertir tu primer sueldo",
		Author:     "finanzas_claras",
		Tags:       []string{"inversiones", "ahorro"},
		Transcript: strings.Repeat("hablemos de inversiones ", 20),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AreaID == nil || *out.AreaID != 3 {
		t.Fatalf("area = %v, want 3", out.AreaID)
	}
	if out.Method != MethodMultiSignal {
		t.Errorf("method = %q, want %q", out.Method, MethodMultiSignal)
	}
	// topic 71 belongs to area 7 and must be discarded
	for _, id := range out.TopicIDs {
		if id == 71 {
			t.Error("topic from another area survived filtering")
		}
	}
	if len(out.TopicIDs) != 2 {
		t.Errorf("topics = %v, want [31 32]", out.TopicIDs)
	}
}

func TestClassifyModelFailureFallsBackToTags(t *testing.T) {
	areas, topics := testTaxonomy()
	gen := &fakeGenerator{err: errors.New("connection refused")}
	c := NewClassifier(gen, areas, topics)

	out, err := c.Classify(context.Background(), Input{
		Title:      "Rutina de gym",
		Tags:       []string{"fitness", "gym", "workout"},
		Transcript: "hoy entrenamos pierna y espalda con series largas",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Method != MethodTagsFallback {
		t.Errorf("method = %q, want %q", out.Method, MethodTagsFallback)
	}
	if out.AreaID == nil || *out.AreaID != 1 {
		t.Fatalf("area = %v, want 1", out.AreaID)
	}
	if !out.NeedsReview {
		t.Error("fallback result must need review")
	}
}

func TestClassifyUnparsableResponseWithoutTags(t *testing.T) {
	areas, topics := testTaxonomy()
	gen := &fakeGenerator{response: "no tengo idea"}
	c := NewClassifier(gen, areas, topics)

	out, err := c.Classify(context.Background(), Input{
		Title:      "Video sin pistas",
		Transcript: "contenido genérico sin señales claras de ningún tema",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.AreaID != nil {
		t.Errorf("area = %v, want nil", out.AreaID)
	}
	if out.Method != MethodUnclassifiable {
		t.Errorf("method = %q, want %q", out.Method, MethodUnclassifiable)
	}
	if !out.NeedsReview {
		t.Error("unclassifiable result must need review")
	}
}

func TestClassifySkipsModelWithoutText(t *testing.T) {
	areas, topics := testTaxonomy()
	gen := &fakeGenerator{response: `{"area_id": 3, "confianza": "alta"}`}
	c := NewClassifier(gen, areas, topics)

	out, err := c.Classify(context.Background(), Input{
		Title:       "Solo tags",
		Description: "corto", // below the minimum useful length
		Tags:        []string{"fitness", "gym"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gen.calls != 0 {
		t.Errorf("model called %d times, want 0", gen.calls)
	}
	if out.AreaID == nil || *out.AreaID != 1 {
		t.Fatalf("area = %v, want 1", out.AreaID)
	}
}

func TestClassifyInvalidAreaFallsBack(t *testing.T) {
	areas, topics := testTaxonomy()
	gen := &fakeGenerator{response: `{"area_id": 99, "topic_ids": [], "confianza": "alta"}`}
	c := NewClassifier(gen, areas, topics)

	out, err := c.Classify(context.Background(), Input{
		Title:      "Área inventada",
		Tags:       []string{"fitness", "gym"},
		Transcript: "rutina completa de entrenamiento en casa sin material",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Method != MethodTagsFallback {
		t.Errorf("method = %q, want %q", out.Method, MethodTagsFallback)
	}
}

func TestBuildPromptIncludesTaxonomyAndContext(t *testing.T) {
	areas, topics := testTaxonomy()
	gen := &fakeGenerator{response: `{"area_id": 3, "topic_ids": [], "confianza": "media"}`}
	c := NewClassifier(gen, areas, topics)

	_, err := c.Classify(context.Background(), Input{
		Title:         "Ahorro para todos",
		Author:        "finanzas_claras",
		Tags:          []string{"ahorro"},
		Transcript:    "cómo ahorrar la mitad de tu sueldo sin sufrir",
		AuthorHistory: map[int64]int{3: 9, 7: 2},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, want := range []string{
		"Dinero y Finanzas",
		"Inversiones(id:31)",
		"@finanzas_claras",
		"Dinero y Finanzas (9 videos)",
		"Transcripción:",
	} {
		if !strings.Contains(gen.prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}
