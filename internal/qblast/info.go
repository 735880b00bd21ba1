package qblast

import (
	"bufio"
	"bytes"
	"strings"
)

const (
	infoBegin = "QBlastInfoBegin"
	infoEnd   = "QBlastInfoEnd"
)

// parseInfo extracts the key=value lines of every QBlastInfo block in body.
//
//	<!--QBlastInfoBegin
//	    RID = 8B1ZRJ4S016
//	    RTOE = 27
//	QBlastInfoEnd
//	-->
//
// The SearchInfo page splits Status and ThereAreHits across two blocks, so
// blocks are merged; when a key repeats, the first value wins. Keys and
// values are trimmed; spaces around '=' are optional.
func parseInfo(body []byte) (map[string]string, error) {
	if !bytes.Contains(body, []byte(infoBegin)) {
		return nil, ErrNoInfo
	}

	info := make(map[string]string)
	rest := body
	for {
		start := bytes.Index(rest, []byte(infoBegin))
		if start < 0 {
			break
		}
		block := rest[start+len(infoBegin):]
		rest = nil
		if end := bytes.Index(block, []byte(infoEnd)); end >= 0 {
			block, rest = block[:end], block[end+len(infoEnd):]
		}
		readInfoBlock(block, info)
	}
	return info, nil
}

func readInfoBlock(block []byte, info map[string]string) {
	sc := bufio.NewScanner(bytes.NewReader(block))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if _, seen := info[key]; !seen {
			info[key] = strings.TrimSpace(value)
		}
	}
}
