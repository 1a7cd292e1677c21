package transcript

import (
	"strings"
	"testing"
)

func TestCleanVTT(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name: "headers timestamps and cue numbers removed",
			content: `WEBVTT
Kind: captions
Language: es

1
00:00:00.000 --> 00:00:02.000
hola a todos bienvenidos al canal

2
00:00:02.000 --> 00:00:04.000
hoy hablamos de inversiones a largo plazo`,
			want: "hola a todos bienvenidos al canal hoy hablamos de inversiones a largo plazo",
		},
		{
			name: "duplicate lines from overlapping cues deduped",
			content: `WEBVTT

00:00:00.000 --> 00:00:02.000
esto se repite en cada cue solapado

00:00:01.000 --> 00:00:03.000
esto se repite en cada cue solapado

00:00:02.000 --> 00:00:04.000
esto se repite en cada cue solapado y algo nuevo aparece`,
			want: "esto se repite en cada cue solapado esto se repite en cada cue solapado y algo nuevo aparece",
		},
		{
			name: "markup and bracketed markers stripped",
			content: `WEBVTT

00:00:00.000 --> 00:00:02.000
<c.yellow>bienvenidos</c> al programa [Música] de esta semana completa`,
			want: "bienvenidos al programa de esta semana completa",
		},
		{
			name:    "too little text yields empty",
			content: "WEBVTT\n\n00:00:00.000 --> 00:00:01.000\nhola",
			want:    "",
		},
		{
			name:    "empty content",
			content: "",
			want:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CleanVTT(tt.content)
			if got != tt.want {
				t.Errorf("CleanVTT() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanVTTCollapsesWhitespace(t *testing.T) {
	content := "WEBVTT\n\n00:00:00.000 --> 00:00:02.000\nuna   línea    con     espacios      raros y suficiente texto"
	got := CleanVTT(content)
	if strings.Contains(got, "  ") {
		t.Errorf("whitespace not collapsed: %q", got)
	}
}
