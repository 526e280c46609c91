package document

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Block is a fenced code block as a CommonMark renderer sees it
type Block struct {
	Line     int    // 1-based line of the opening fence
	Language string // Info string language, empty when untagged
	Content  string
}

// FencedBlocks parses the document with goldmark and lists its fenced code blocks.
// Unlike the line scanner it follows CommonMark rules, so it reports what a
// renderer would show rather than what the fence heuristics see.
func (d *Document) FencedBlocks() []Block {
	source := []byte(strings.Join(d.Lines, "\n"))
	root := goldmark.New().Parser().Parse(text.NewReader(source))

	var blocks []Block
	_ = ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fcb, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}

		var content bytes.Buffer
		lines := fcb.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			content.Write(seg.Value(source))
		}

		blocks = append(blocks, Block{
			Line:     fenceLine(fcb, source),
			Language: string(fcb.Language(source)),
			Content:  content.String(),
		})
		return ast.WalkSkipChildren, nil
	})
	return blocks
}

// fenceLine locates the opening fence of a block. goldmark keeps no position
// for the fence itself, so it is derived from the info string or first content line.
func fenceLine(fcb *ast.FencedCodeBlock, source []byte) int {
	switch {
	case fcb.Info != nil:
		return lineAt(source, fcb.Info.Segment.Start)
	case fcb.Lines().Len() > 0:
		return lineAt(source, fcb.Lines().At(0).Start) - 1
	}
	return 0
}

func lineAt(source []byte, offset int) int {
	return bytes.Count(source[:offset], []byte("\n")) + 1
}

// LanguageCounts tallies fenced blocks by language; untagged blocks count under ""
func LanguageCounts(blocks []Block) map[string]int {
	counts := make(map[string]int)
	for _, b := range blocks {
		counts[b.Language]++
	}
	return counts
}
