// Package source reads windows of source code around a target line, so a
// caller inspecting a stack frame or breakpoint can see the surrounding code
// without opening the file itself.
package source

import (
	"bufio"
	"os"

	"github.com/pydbg/debugpy-mcp/internal/errors"
	"github.com/pydbg/debugpy-mcp/pkg/types"
)

// DefaultContextLines is how many lines to include on each side of the
// target line when the caller does not say.
const DefaultContextLines = 5

// maxContextLines bounds the window size so one request cannot return an
// entire large file.
const maxContextLines = 100

// ReadContext returns the lines surrounding targetLine in the file at path.
// contextLines is the number of lines on each side; zero means the default.
func ReadContext(path string, targetLine, contextLines int) (*types.SourceContext, error) {
	if targetLine < 1 {
		return nil, errors.InvalidParameter("lineNumber", targetLine, "a 1-based line number")
	}
	if contextLines == 0 {
		contextLines = DefaultContextLines
	}
	if contextLines < 0 || contextLines > maxContextLines {
		return nil, errors.InvalidParameter("contextLines", contextLines, "between 0 and 100")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.InvalidParameter("filePath", path, "a readable source file").
			WithDetails("cause", err.Error())
	}
	defer f.Close()

	start := targetLine - contextLines
	if start < 1 {
		start = 1
	}
	end := targetLine + contextLines

	ctx := &types.SourceContext{
		FilePath:   path,
		TargetLine: targetLine,
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		if lineNo < start {
			continue
		}
		if lineNo <= end {
			ctx.Lines = append(ctx.Lines, types.SourceLine{
				Line:    lineNo,
				Content: scanner.Text(),
				Target:  lineNo == targetLine,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.InvalidParameter("filePath", path, "a readable source file").
			WithDetails("cause", err.Error())
	}
	ctx.TotalLines = lineNo

	if targetLine > lineNo {
		return nil, errors.InvalidParameter("lineNumber", targetLine,
			"a line number within the file").WithDetails("totalLines", lineNo)
	}

	return ctx, nil
}
