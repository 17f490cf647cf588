package export

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dusk-indust/memogen/internal/store"
)

const htmlShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s — Investment Memo %s</title>
<style>
body { max-width: 48rem; margin: 2rem auto; padding: 0 1rem; font-family: Georgia, serif; line-height: 1.6; }
h1, h2, h3 { font-family: Helvetica, Arial, sans-serif; }
table { border-collapse: collapse; }
th, td { border: 1px solid #ccc; padding: 0.3rem 0.6rem; }
sup a { text-decoration: none; }
</style>
</head>
<body>
%s</body>
</html>
`

// md renders GitHub-flavored markdown; the table extension matters because
// the enrichment stages emit pipe tables.
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// WriteHTML renders a run's final draft as a standalone HTML page and
// writes it into the run directory as export.html. Fails when the run has
// no final draft yet.
func WriteHTML(st *store.Store, company, version string) (string, error) {
	run, err := st.OpenRun(company, version)
	if err != nil {
		return "", err
	}
	raw, err := run.ReadArtifact(store.FinalDraft)
	if err != nil {
		return "", fmt.Errorf("export: run has no final draft: %w", err)
	}

	var body bytes.Buffer
	if err := md.Convert(raw, &body); err != nil {
		return "", fmt.Errorf("export: render markdown: %w", err)
	}

	page := fmt.Sprintf(htmlShell,
		html.EscapeString(run.Company), run.Version.String(), body.String())
	if err := run.WriteArtifact("export.html", []byte(page)); err != nil {
		return "", fmt.Errorf("export: %w", err)
	}
	return run.Path("export.html"), nil
}
