package export

import "html/template"

const (
	IndexFile    = "index.html"
	StylesFile   = "styles.css"
	ManifestFile = "manifest.json"
)

type sectionView struct {
	ID    string
	Type  string
	Outer string
	Inner string
	CSS   template.CSS
	Body  template.HTML
}

type pageView struct {
	Name      string
	BodyClass string
	Sections  []template.HTML
}

var pageTemplates = template.Must(template.New("export").Parse(`
{{define "section"}}<section id="{{.ID}}" data-section-type="{{.Type}}" class="{{.Outer}}"{{if .CSS}} style="{{.CSS}}"{{end}}>
  <div class="{{.Inner}}">
{{.Body}}
  </div>
</section>{{end}}

{{define "failed"}}<section id="{{.ID}}" data-section-type="{{.Type}}" data-render-error="true" class="{{.Outer}}">
  <div class="{{.Inner}}">
    <p class="text-sm opacity-60">This {{.Type}} section could not be rendered.</p>
  </div>
</section>{{end}}

{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Name}}</title>
<script src="https://cdn.tailwindcss.com"></script>
<link rel="stylesheet" href="styles.css">
</head>
<body class="{{.BodyClass}}">
<main>
{{range .Sections}}{{.}}
{{end}}</main>
</body>
</html>
{{end}}`))

// stylesheet backs the entrance animations selected per section.
const stylesheet = `html { scroll-behavior: smooth; }
body { margin: 0; }

.sb-anim-fadeUp { animation: sb-fade-up 0.6s ease-out both; }
.sb-anim-fadeDown { animation: sb-fade-down 0.6s ease-out both; }
.sb-anim-fadeIn { animation: sb-fade-in 0.6s ease-out both; }
.sb-anim-scaleUp { animation: sb-scale-up 0.6s ease-out both; }
.sb-anim-slideLeft { animation: sb-slide-left 0.6s ease-out both; }
.sb-anim-slideRight { animation: sb-slide-right 0.6s ease-out both; }

@keyframes sb-fade-up { from { opacity: 0; transform: translateY(40px); } to { opacity: 1; transform: none; } }
@keyframes sb-fade-down { from { opacity: 0; transform: translateY(-40px); } to { opacity: 1; transform: none; } }
@keyframes sb-fade-in { from { opacity: 0; } to { opacity: 1; } }
@keyframes sb-scale-up { from { opacity: 0; transform: scale(0.8); } to { opacity: 1; transform: none; } }
@keyframes sb-slide-left { from { opacity: 0; transform: translateX(40px); } to { opacity: 1; transform: none; } }
@keyframes sb-slide-right { from { opacity: 0; transform: translateX(-40px); } to { opacity: 1; transform: none; } }
`
