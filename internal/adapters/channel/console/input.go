package console

import (
	"strings"

	"github.com/bnema/persona-cast/internal/application"
	"github.com/bnema/persona-cast/internal/domain"
)

// ParseLine reads one typed line. Accepted forms are "author: text" and
// "#channel author: text"; the first form posts to defaultChannel.
func ParseLine(line string, defaultChannel domain.ChannelID) (application.InboundMessage, bool) {
	line = strings.TrimSpace(line)
	channel := defaultChannel

	if strings.HasPrefix(line, "#") {
		name, rest, ok := strings.Cut(line[1:], " ")
		if !ok || name == "" {
			return application.InboundMessage{}, false
		}
		channel = domain.ChannelID(name)
		line = strings.TrimSpace(rest)
	}

	author, text, ok := strings.Cut(line, ":")
	author = strings.TrimSpace(author)
	text = strings.TrimSpace(text)
	if !ok || author == "" || text == "" || strings.ContainsAny(author, " \t") {
		return application.InboundMessage{}, false
	}

	return application.InboundMessage{Channel: channel, Author: author, Text: text}, true
}
