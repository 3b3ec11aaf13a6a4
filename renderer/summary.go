package renderer

import (
	"bytes"
	"strconv"

	"github.com/etnz/exposure"
	md "github.com/nao1215/markdown"
)

// SummaryMarkdown renders the at-a-glance exposure summary. A nil summary
// renders the placeholder headline only.
func SummaryMarkdown(s *exposure.ExposureSummary) string {
	var buf bytes.Buffer
	doc := md.NewMarkdown(&buf)

	doc.H1("Exposure Summary")
	doc.PlainText(s.String())
	if s == nil {
		return doc.String()
	}

	doc.Table(md.TableSet{
		Alignment: []md.TableAlignment{
			md.AlignLeft,
			md.AlignRight,
			md.AlignRight,
		},
		Header: []string{"Risk Level", "Non-Stable Share", "Non-Stable Assets"},
		Rows: [][]string{
			{string(s.RiskLevel), s.NonStablePercentage.String(), strconv.Itoa(s.NonStableAssetCount)},
		},
	})

	return doc.String()
}
