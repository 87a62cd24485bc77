package moderation

import (
	"bufio"
	"bytes"
	"casechat/errors"
	"embed"
	"io/fs"
	"strings"
)

//go:embed blacklist/*
var blacklistFolder embed.FS

// BlacklistData carries the loaded result including metadata for logging.
type BlacklistData struct {
	Words     []string
	Languages []string
}

// LoadBlacklist reads the embedded dictionaries, one .txt file per
// language, and merges them into a unique word list.
func LoadBlacklist() (*BlacklistData, error) {
	entries, err := fs.ReadDir(blacklistFolder, "blacklist")
	if err != nil {
		return nil, err
	}

	var languages []string
	uniqueWords := make(map[string]struct{})

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		// The filename names the language ("en.txt" -> "en")
		languages = append(languages, strings.TrimSuffix(entry.Name(), ".txt"))

		data, err := blacklistFolder.ReadFile("blacklist/" + entry.Name())
		if err != nil {
			return nil, err
		}

		// A scanner handles both \n and \r\n line endings
		scanner := bufio.NewScanner(bytes.NewReader(data))
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line != "" && !strings.HasPrefix(line, "#") {
				uniqueWords[line] = struct{}{}
			}
		}
		if err := scanner.Err(); err != nil {
			return nil, err
		}
	}

	if len(uniqueWords) == 0 {
		return nil, errors.ErrEmptyBlacklist
	}

	words := make([]string, 0, len(uniqueWords))
	for w := range uniqueWords {
		words = append(words, w)
	}

	return &BlacklistData{Words: words, Languages: languages}, nil
}
