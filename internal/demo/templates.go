package demo

// Demo page templates. Kept as source-embedded strings so the binary stays
// self-contained; parsed on each Generate call, which is cheap next to the
// font conversion that precedes it.

const unicodePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.FontName}} &middot; unicode reference</title>
<link rel="stylesheet" href="{{.CSSName}}">
</head>
<body>
<header>
<h1>{{.FontName}}</h1>
<p>{{len .Icons}} icons. Copy the entity next to a glyph into your markup.</p>
</header>
<ul class="demo-grid">
{{range .Icons}}<li>
<i class="{{$.BaseClass}}">{{.Entity}}</i>
<span class="demo-name">{{.Label}}</span>
<code>{{.Code}}</code>
</li>
{{end}}</ul>
</body>
</html>
`

const fontClassPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.FontName}} &middot; class reference</title>
<link rel="stylesheet" href="{{.CSSName}}">
</head>
<body>
<header>
<h1>{{.FontName}}</h1>
<p>{{len .Icons}} icons. Apply the base class plus the icon class.</p>
</header>
<ul class="demo-grid">
{{range .Icons}}<li>
<i class="{{$.BaseClass}} {{.Class}}"></i>
<span class="demo-name">{{.Label}}</span>
<code>.{{.Class}}</code>
</li>
{{end}}</ul>
</body>
</html>
`

const stylesheetTemplate = `@font-face {
  font-family: "{{.FontName}}";
{{- if .EOTSrc}}
  src: {{.EOTSrc}};
{{- end}}
{{- if .SrcList}}
  src: {{.SrcList}};
{{- end}}
  font-weight: normal;
  font-style: normal;
}

.{{.BaseClass}} {
  font-family: "{{.FontName}}" !important;
  font-size: 32px;
  font-style: normal;
  line-height: 1;
  -webkit-font-smoothing: antialiased;
  -moz-osx-font-smoothing: grayscale;
}

{{range .Icons}}.{{.Class}}::before {
  content: "{{.CSS}}";
}
{{end}}
.demo-grid {
  display: grid;
  grid-template-columns: repeat(auto-fill, minmax(140px, 1fr));
  gap: 16px;
  list-style: none;
  padding: 0;
  font-family: -apple-system, "Segoe UI", sans-serif;
}

.demo-grid li {
  text-align: center;
  padding: 12px 4px;
  border: 1px solid #e5e5e5;
  border-radius: 4px;
}

.demo-name {
  display: block;
  margin-top: 8px;
  font-size: 13px;
  color: #333;
}

.demo-grid code {
  font-size: 12px;
  color: #888;
}
`
