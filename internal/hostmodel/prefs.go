package hostmodel

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// prefsVersionKey is written first in every Eclipse preferences file.
const prefsVersionKey = "eclipse.preferences.version"

// readPrefs reads a Java-properties style preferences file.
// A missing file yields an empty map.
func readPrefs(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	defer f.Close()

	return parsePrefs(f)
}

// parsePrefs parses preferences from r. Lines have no length limit.
func parsePrefs(r io.Reader) (map[string]string, error) {
	out := make(map[string]string)
	br := bufio.NewReader(r)

	var pending strings.Builder
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		eof := err == io.EOF
		if eof && line == "" {
			break
		}
		line = strings.TrimRight(line, "\r\n")

		line = strings.TrimLeft(line, " \t\f")
		if pending.Len() == 0 && (line == "" || line[0] == '#' || line[0] == '!') {
			if eof {
				break
			}
			continue
		}

		// A line ending in an odd number of backslashes continues on the next line.
		if continues(line) {
			line = line[:len(line)-1]
			if !eof {
				pending.WriteString(line)
				continue
			}
		}
		pending.WriteString(line)

		key, value := splitProperty(pending.String())
		out[key] = value
		pending.Reset()
		if eof {
			break
		}
	}
	if pending.Len() > 0 {
		key, value := splitProperty(pending.String())
		out[key] = value
	}
	return out, nil
}

func continues(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// splitProperty splits a logical line into key and value. The key ends at the
// first unescaped '=', ':' or whitespace.
func splitProperty(line string) (string, string) {
	i := 0
	for ; i < len(line); i++ {
		c := line[i]
		if c == '\\' {
			i++
			continue
		}
		if c == '=' || c == ':' || c == ' ' || c == '\t' || c == '\f' {
			break
		}
	}
	i = min(i, len(line))

	rest := strings.TrimLeft(line[i:], " \t\f")
	if rest != "" && (rest[0] == '=' || rest[0] == ':') {
		rest = strings.TrimLeft(rest[1:], " \t\f")
	}
	return unescape(line[:i]), unescape(rest)
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i == len(s)-1 {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

var prefsEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
	"=", `\=`,
	":", `\:`,
	"#", `\#`,
	"!", `\!`,
)

// formatPrefs renders preferences with the version key first and the rest sorted.
func formatPrefs(prefs map[string]string) []byte {
	var buf bytes.Buffer

	version := prefs[prefsVersionKey]
	if version == "" {
		version = "1"
	}
	buf.WriteString(prefsVersionKey + "=" + prefsEscaper.Replace(version) + "\n")

	keys := make([]string, 0, len(prefs))
	for k := range prefs {
		if k != prefsVersionKey {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	for _, k := range keys {
		key := strings.ReplaceAll(prefsEscaper.Replace(k), " ", `\ `)
		buf.WriteString(key + "=" + prefsEscaper.Replace(prefs[k]) + "\n")
	}
	return buf.Bytes()
}

// writeFileAtomic writes data to a temporary file next to path and renames it
// into place, so readers never observe a partially written file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
