package text

import "testing"

func TestPrepareArticle(t *testing.T) {
	tests := []struct {
		name  string
		title string
		body  string
		want  string
	}{
		{
			name:  "plain text gets title heading",
			title: "Berlin",
			body:  "Berlin ist die Hauptstadt.",
			want:  "# Berlin\n\nBerlin ist die Hauptstadt.",
		},
		{
			name:  "level two heading",
			title: "T",
			body:  "Intro\n== Geschichte ==\nText",
			want:  "# T\n\nIntro\n\n## Geschichte\n\nText",
		},
		{
			name:  "level three heading without closing marker",
			title: "T",
			body:  "Intro\n=== Lage\nText",
			want:  "# T\n\nIntro\n\n### Lage\n\nText",
		},
		{
			name:  "adjacent headings are split",
			title: "T",
			body:  "Intro == A == == B ==",
			want:  "# T\n\nIntro\n\n## A\n\n## B\n\n",
		},
		{
			name:  "bullets",
			title: "T",
			body:  "Liste: * eins * zwei",
			want:  "# T\n\nListe:\n- eins\n- zwei",
		},
		{
			name:  "blank line runs collapse",
			title: "T",
			body:  "a\n\n\n\nb",
			want:  "# T\n\na\n\nb",
		},
		{
			name:  "line endings normalized",
			title: "T",
			body:  "a\r\nb",
			want:  "# T\n\na\nb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrepareArticle(tt.title, tt.body); got != tt.want {
				t.Errorf("PrepareArticle(%q, %q) = %q; want %q", tt.title, tt.body, got, tt.want)
			}
		})
	}
}
