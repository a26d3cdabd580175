package runtime

import (
	"bufio"
	"bytes"
	"embed"
	"io/fs"
	"strings"

	"huddle/errors"
)

// Wordlist carries the outcome of the loading pass, including the
// language tags used for the startup log line.
type Wordlist struct {
	Words     []string
	Languages []string
}

// WordlistLoader reads banned word dictionaries from an embedded
// filesystem. One .txt file per language, one word or phrase per line.
type WordlistLoader struct {
	fs embed.FS
}

func NewWordlistLoader(f embed.FS) *WordlistLoader {
	return &WordlistLoader{fs: f}
}

// LoadAll scans the given directory of the embedded FS, treating every
// .txt file as one language dictionary and merging the contents into a
// unique word list.
func (l *WordlistLoader) LoadAll(path string) (*Wordlist, error) {
	entries, err := fs.ReadDir(l.fs, path)
	if err != nil {
		return nil, err
	}

	var languages []string
	uniqueWords := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// The filename is the language tag (e.g. "fr.txt" -> "fr")
		lang := strings.TrimSuffix(entry.Name(), ".txt")
		languages = append(languages, lang)

		data, err := l.fs.ReadFile(path + "/" + entry.Name())
		if err != nil {
			return nil, err
		}

		// Use a scanner to handle different line endings (\n vs \r\n) correctly
		// ⚠️Don't use strings.Split
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" {
				uniqueWords[line] = struct{}{}
			}
		}

		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(uniqueWords) == 0 {
		return nil, errors.ErrEmptyWords
	}

	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}

	return &Wordlist{
		Words:     words,
		Languages: languages,
	}, nil
}
