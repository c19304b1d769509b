package annotation

import (
	"fmt"
	"io"
	"strings"

	"github.com/russross/blackfriday/v2"
	"gopkg.in/yaml.v3"

	"github.com/lewtec/enquadra/internal/domain"
)

// Export is the document written by the export command
type Export struct {
	Image       ExportImage         `yaml:"image"`
	Annotations []domain.Annotation `yaml:"annotations"`
}

type ExportImage struct {
	SHA256   string `yaml:"sha256"`
	Filename string `yaml:"filename"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
}

func NewExport(img *domain.Image, anns []domain.Annotation) Export {
	if anns == nil {
		anns = []domain.Annotation{}
	}
	return Export{
		Image: ExportImage{
			SHA256:   img.SHA256,
			Filename: img.Filename,
			Width:    img.Width,
			Height:   img.Height,
		},
		Annotations: anns,
	}
}

func (e Export) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(e); err != nil {
		return fmt.Errorf("while encoding export: %w", err)
	}
	return enc.Close()
}

func formatNumber(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

// Markdown renders the export as a report with the task description on top
func (e Export) Markdown(config *Config) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Image.Filename)
	if config != nil && strings.TrimSpace(config.Meta.Description) != "" {
		b.WriteString(strings.TrimSpace(config.Meta.Description))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "- **SHA256**: `%s`\n", e.Image.SHA256)
	fmt.Fprintf(&b, "- **Size**: %d x %d\n", e.Image.Width, e.Image.Height)
	fmt.Fprintf(&b, "- **Annotations**: %d\n\n", len(e.Annotations))
	if len(e.Annotations) == 0 {
		b.WriteString("_No annotations._\n")
		return b.String()
	}

	b.WriteString("| # | Label | X | Y | Width | Height | Flags |\n")
	b.WriteString("|---|---|---|---|---|---|---|\n")
	for i, a := range e.Annotations {
		label := a.LabelName
		if label == "" {
			label = "_unlabeled_"
		}
		var flags []string
		if !a.Visible {
			flags = append(flags, "hidden")
		}
		if a.Locked {
			flags = append(flags, "locked")
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s |\n", i+1, label,
			formatNumber(a.X), formatNumber(a.Y), formatNumber(a.Width), formatNumber(a.Height),
			strings.Join(flags, ", "))
	}

	if config != nil && len(config.Labels) > 0 {
		b.WriteString("\n## Labels\n\n")
		for _, l := range config.Labels {
			n := 0
			for _, a := range e.Annotations {
				if a.LabelName == l.Name {
					n++
				}
			}
			fmt.Fprintf(&b, "- **%s** (`%s`): %d\n", l.Name, l.Color, n)
		}
	}
	return b.String()
}

// HTML renders the markdown report with blackfriday
func (e Export) HTML(config *Config) string {
	return string(blackfriday.Run([]byte(e.Markdown(config))))
}
