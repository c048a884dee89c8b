package source

import (
    "bytes"
    "strings"

    "golang.org/x/net/html"
)

// FromHTML converts an HTML export of the guide into plain lines. Block
// elements start a new line, paragraphs and headings are separated by a blank
// line, and navigation or script containers are skipped. The <body> element
// is preferred as root; documents without one are walked whole.
func FromHTML(input []byte) string {
    node, err := html.Parse(bytes.NewReader(input))
    if err != nil || node == nil {
        return ""
    }
    root := findFirst(node, "body")
    if root == nil {
        root = node
    }
    var b strings.Builder
    collectText(&b, root, false)
    return normalizeLines(b.String())
}

func findFirst(n *html.Node, tag string) *html.Node {
    var res *html.Node
    var dfs func(*html.Node)
    dfs = func(cur *html.Node) {
        if res != nil {
            return
        }
        if cur.Type == html.ElementNode && strings.EqualFold(cur.Data, tag) {
            res = cur
            return
        }
        for c := cur.FirstChild; c != nil; c = c.NextSibling {
            dfs(c)
            if res != nil {
                return
            }
        }
    }
    dfs(n)
    return res
}

func collectText(b *strings.Builder, n *html.Node, inPre bool) {
    if n.Type == html.ElementNode {
        switch strings.ToLower(n.Data) {
        case "script", "style", "noscript", "nav", "footer", "head", "iframe":
            return
        case "pre":
            inPre = true
            b.WriteString("\n")
        case "br", "hr":
            b.WriteString("\n")
        case "p", "div", "h1", "h2", "h3", "h4", "h5", "h6", "li", "tr", "ul", "ol", "table", "blockquote":
            b.WriteString("\n")
        case "td", "th":
            b.WriteString(" ")
        }
    }

    if n.Type == html.TextNode {
        data := n.Data
        if !inPre {
            data = strings.ReplaceAll(data, "\t", " ")
            data = strings.ReplaceAll(data, "\r", " ")
            data = strings.ReplaceAll(data, "\n", " ")
        }
        b.WriteString(data)
    }

    for c := n.FirstChild; c != nil; c = c.NextSibling {
        collectText(b, c, inPre)
    }

    if n.Type == html.ElementNode {
        switch strings.ToLower(n.Data) {
        case "p", "h1", "h2", "h3", "h4", "h5", "h6", "blockquote":
            b.WriteString("\n\n")
        case "li", "div", "tr", "pre":
            b.WriteString("\n")
        }
    }
}

// normalizeLines trims every line, collapses inner whitespace and keeps at
// most one blank line in a row.
func normalizeLines(s string) string {
    lines := strings.Split(s, "\n")
    out := make([]string, 0, len(lines))
    for _, line := range lines {
        trimmed := strings.TrimSpace(strings.ReplaceAll(line, "\u00a0", " "))
        if trimmed == "" {
            if len(out) > 0 && out[len(out)-1] == "" {
                continue
            }
            if len(out) == 0 {
                continue
            }
            out = append(out, "")
            continue
        }
        out = append(out, collapseSpaces(trimmed))
    }
    for len(out) > 0 && out[len(out)-1] == "" {
        out = out[:len(out)-1]
    }
    return strings.Join(out, "\n")
}

func collapseSpaces(s string) string {
    var b strings.Builder
    lastSpace := false
    for _, r := range s {
        if r == ' ' || r == '\t' {
            if !lastSpace {
                b.WriteByte(' ')
                lastSpace = true
            }
            continue
        }
        b.WriteRune(r)
        lastSpace = false
    }
    return b.String()
}
