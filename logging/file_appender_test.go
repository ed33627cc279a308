package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"
)

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "steric.log")
	appender := NewFileAppender(path, 1)

	logger := NewBlankLogger("file")
	logger.SetLevel(INFO)
	logger.AddAppender(appender)
	logger.Infow("collision detection done", "matches", 3)
	logger.Debug("dropped")
	test.That(t, logger.Sync(), test.ShouldBeNil)
	test.That(t, appender.Close(), test.ShouldBeNil)

	content, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	test.That(t, lines, test.ShouldHaveLength, 1)
	test.That(t, lines[0], test.ShouldContainSubstring, "INFO\tfile\t")
	test.That(t, lines[0], test.ShouldContainSubstring, `{"matches":3}`)
}
