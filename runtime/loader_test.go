package runtime

import (
	"testing"

	"github.com/stretchr/testify/require"

	"huddle/errors"
)

func Test_Wordlist_Merges_All_Embedded_Languages(t *testing.T) {
	req := require.New(t)

	loader := NewWordlistLoader(bannedFolder)
	data, err := loader.LoadAll("banned")

	req.NoError(err)
	req.ElementsMatch([]string{"en", "fr", "ru"}, data.Languages)
	req.Contains(data.Words, "spam")
	req.Contains(data.Words, "arnaque")
	req.Contains(data.Words, "спам")

	// Merged list holds no duplicates and no blank lines
	seen := make(map[string]struct{}, len(data.Words))
	for _, w := range data.Words {
		req.NotEmpty(w)
		_, dup := seen[w]
		req.False(dup, "duplicate word %q", w)
		seen[w] = struct{}{}
	}
}

func Test_Wordlist_Missing_Directory_Fails(t *testing.T) {
	req := require.New(t)

	_, err := NewWordlistLoader(bannedFolder).LoadAll("nowhere")

	req.Error(err)
}

func Test_Wordlist_Empty_Result_Is_An_Error(t *testing.T) {
	req := require.New(t)

	// The embedded folder itself is never empty, the error path is
	// reachable through a dir containing only subdirectories.
	_, err := NewWordlistLoader(bannedFolder).LoadAll(".")

	// "." lists the banned directory entry only, which is skipped
	req.ErrorIs(err, errors.ErrEmptyWords)
}
