package summarize

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantSummary string
		wantPoints  []string
	}{
		{
			name: "well formed response",
			raw: `RESUMEN: El video explica cómo empezar a invertir con poco dinero.

PUNTOS CLAVE:
- Abrir una cuenta en un bróker de bajo coste
- Empezar con fondos indexados diversificados
- Mantener la inversión a largo plazo`,
			wantSummary: "El video explica cómo empezar a invertir con poco dinero.",
			wantPoints: []string{
				"Abrir una cuenta en un bróker de bajo coste",
				"Empezar con fondos indexados diversificados",
				"Mantener la inversión a largo plazo",
			},
		},
		{
			name: "case insensitive markers and numbered bullets",
			raw: `resumen: Consejos de productividad para trabajar desde casa.
puntos clave:
1. Definir un horario fijo
2) Preparar un espacio dedicado
3. Eliminar distracciones del móvil`,
			wantSummary: "Consejos de productividad para trabajar desde casa.",
			wantPoints: []string{
				"Definir un horario fijo",
				"Preparar un espacio dedicado",
				"Eliminar distracciones del móvil",
			},
		},
		{
			name: "multi line summary accumulates",
			raw: `RESUMEN:
El autor presenta tres rutinas de entrenamiento.
Cada rutina está pensada para un nivel distinto.

PUNTOS CLAVE:
- Rutina inicial de cuerpo completo`,
			wantSummary: "El autor presenta tres rutinas de entrenamiento. Cada rutina está pensada para un nivel distinto.",
			wantPoints:  []string{"Rutina inicial de cuerpo completo"},
		},
		{
			name: "mixed bullet markers and short fragments dropped",
			raw: `RESUMEN: Resumen breve del contenido.
PUNTOS CLAVE:
• Primer punto con viñeta
* Segundo punto con asterisco
- ok
- Tercer punto normal`,
			wantSummary: "Resumen breve del contenido.",
			wantPoints: []string{
				"Primer punto con viñeta",
				"Segundo punto con asterisco",
				"Tercer punto normal",
			},
		},
		{
			name:        "unstructured response becomes raw summary",
			raw:         "Este video trata sobre cocina vegana y recetas rápidas para el día a día.",
			wantSummary: "Este video trata sobre cocina vegana y recetas rápidas para el día a día.",
			wantPoints:  nil,
		},
		{
			name:        "empty response",
			raw:         "",
			wantSummary: "",
			wantPoints:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, points := Parse(tt.raw)
			if summary != tt.wantSummary {
				t.Errorf("summary = %q, want %q", summary, tt.wantSummary)
			}
			if len(points) != len(tt.wantPoints) {
				t.Fatalf("points = %v, want %v", points, tt.wantPoints)
			}
			for i := range points {
				if points[i] != tt.wantPoints[i] {
					t.Errorf("point[%d] = %q, want %q", i, points[i], tt.wantPoints[i])
				}
			}
		})
	}
}

func TestParseCapsKeyPoints(t *testing.T) {
	raw := `RESUMEN: Muchos puntos.
PUNTOS CLAVE:
- Punto uno completo
- Punto dos completo
- Punto tres completo
- Punto cuatro completo
- Punto cinco completo
- Punto seis completo
- Punto siete completo
- Punto ocho completo`
	_, points := Parse(raw)
	if len(points) != maxKeyPoints {
		t.Errorf("points = %d, want %d", len(points), maxKeyPoints)
	}
}

func TestParseTruncatesRawFallback(t *testing.T) {
	raw := strings.Repeat("texto sin estructura ", 60)
	summary, points := Parse(raw)
	if len(summary) > rawSummaryCap {
		t.Errorf("summary length = %d, want <= %d", len(summary), rawSummaryCap)
	}
	if points != nil {
		t.Errorf("points = %v, want nil", points)
	}
}
