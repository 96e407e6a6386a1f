package section

import (
	"bytes"
	"fmt"
	"html/template"
	"io"

	"github.com/yuin/goldmark"

	"sitebuilder/internal/theme"
)

type view struct {
	ID   string
	Type string
	D    Data
	S    theme.Style
}

var markdown = goldmark.New()

var fragmentFuncs = template.FuncMap{
	"str": func(d Data, key string) (string, error) {
		s, ok := d.String(key)
		if !ok {
			return "", fmt.Errorf("%s: expected string", key)
		}
		return s, nil
	},
	"opt": func(d Data, key string) string {
		s, _ := d.String(key)
		return s
	},
	"num": func(d Data, key string) (int, error) {
		n, ok := d.Int(key)
		if !ok {
			return 0, fmt.Errorf("%s: expected integer", key)
		}
		return n, nil
	},
	"flag": func(d Data, key string) bool {
		b, _ := d.Bool(key)
		return b
	},
	"strs": func(d Data, key string) ([]string, error) {
		l, ok := d.Strings(key)
		if !ok {
			return nil, fmt.Errorf("%s: expected list of strings", key)
		}
		return l, nil
	},
	"recs": func(d Data, key string) ([]Data, error) {
		l, ok := d.Records(key)
		if !ok {
			return nil, fmt.Errorf("%s: expected list of records", key)
		}
		return l, nil
	},
	"at": func(l []string, i int) (string, error) {
		if i < 0 || i >= len(l) {
			return "", fmt.Errorf("index %d out of range (len %d)", i, len(l))
		}
		return l[i], nil
	},
	"seq": func(n int) []int {
		if n < 0 {
			n = 0
		}
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	},
	"markdown": func(src string) (template.HTML, error) {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(src), &buf); err != nil {
			return "", err
		}
		// goldmark omits raw HTML unless WithUnsafe is set.
		return template.HTML(buf.String()), nil
	},
	"align": func(a string) string {
		switch a {
		case "center":
			return "text-center"
		case "right":
			return "text-right"
		default:
			return "text-left"
		}
	},
	"justify": func(a string) string {
		switch a {
		case "center":
			return "justify-center"
		case "left":
			return "justify-start"
		default:
			return "justify-end"
		}
	},
	"grid": func(n int) string {
		switch {
		case n <= 1:
			return "grid-cols-1"
		case n == 2:
			return "grid-cols-2"
		case n == 3:
			return "grid-cols-3"
		case n == 5:
			return "grid-cols-5"
		case n >= 6:
			return "grid-cols-6"
		default:
			return "grid-cols-4"
		}
	},
	"fontSize": func(s string) string {
		switch s {
		case "xs", "sm", "lg", "xl", "2xl", "3xl":
			return "text-" + s
		default:
			return "text-base"
		}
	},
	"spacing": func(s string) string {
		switch s {
		case "sm":
			return "my-4"
		case "lg":
			return "my-16"
		default:
			return "my-8"
		}
	},
	"default": func(fallback, v string) string {
		if v == "" {
			return fallback
		}
		return v
	},
}

var fragments = template.Must(template.New("fragments").Funcs(fragmentFuncs).Parse(fragmentTemplates))

func renderTemplate(name string) RenderRule {
	return func(w io.Writer, in RenderInput) error {
		// Execute into a buffer so a failing template never leaves partial output.
		var buf bytes.Buffer
		if err := fragments.ExecuteTemplate(&buf, name, view{ID: in.ID, Type: in.Type, D: in.Data, S: in.Style}); err != nil {
			return err
		}
		_, err := w.Write(buf.Bytes())
		return err
	}
}

// RenderPlaceholder is the rule used for types without a registered renderer.
var RenderPlaceholder RenderRule = renderTemplate("placeholder")

const fragmentTemplates = `
{{define "navbar"}}{{$d := .D}}<nav class="flex items-center justify-between{{if flag $d "sticky"}} sticky top-0 z-50{{end}}">
  <div class="text-2xl font-black tracking-tighter">{{str $d "logo"}}</div>
  <ul class="flex gap-8 {{justify (str $d "align")}}">{{range strs $d "links"}}
    <li class="text-sm font-bold uppercase tracking-wider opacity-70">{{.}}</li>{{end}}
  </ul>
</nav>{{end}}

{{define "hero"}}{{$d := .D}}<div class="{{align (str $d "align")}}">
  <h1 class="text-7xl font-black tracking-tighter mb-8">{{str $d "heading"}}</h1>
  <p class="text-2xl mb-12 leading-relaxed opacity-60 font-medium">{{str $d "subheading"}}</p>
  <a href="#" class="inline-block px-12 py-5 text-lg font-black tracking-widest uppercase rounded-2xl shadow-2xl {{.S.Accent}}">{{str $d "button"}}</a>
</div>{{end}}

{{define "richtext"}}{{$d := .D}}<div class="{{align (str $d "align")}}">
  <h2 class="text-5xl font-black mb-12 tracking-tight">{{str $d "heading"}}</h2>
  <div class="prose text-xl leading-loose opacity-70">{{markdown (str $d "body")}}</div>
</div>{{end}}

{{define "text"}}{{$d := .D}}<div class="{{align (str $d "align")}}">
  <p class="{{fontSize (str $d "fontSize")}} opacity-80 leading-relaxed whitespace-pre-line">{{str $d "content"}}</p>
</div>{{end}}

{{define "image"}}{{$d := .D}}<figure class="{{if flag $d "fullWidth"}}w-full{{else}}w-full mx-auto{{end}}">
  <img src="{{default "https://via.placeholder.com/800x400" (str $d "url")}}" alt="{{opt $d "caption"}}" class="w-full rounded-2xl shadow-xl object-cover" height="{{num $d "height"}}">{{with opt $d "caption"}}
  <figcaption class="mt-4 text-xs font-bold uppercase tracking-widest opacity-40 text-center">{{.}}</figcaption>{{end}}
</figure>{{end}}

{{define "cards"}}{{$d := .D}}{{$s := .S}}{{$n := num $d "count"}}{{$titles := strs $d "titles"}}{{$descs := strs $d "descriptions"}}{{$imgs := strs $d "imageUrls"}}<div class="grid gap-8 {{grid $n}}">{{range $i := seq $n}}
  <article class="p-8 rounded-3xl border {{$s.Border}} {{$s.Secondary}}">
    <img src="{{at $imgs $i}}" alt="{{at $titles $i}}" class="h-48 w-full mb-6 rounded-2xl object-cover">
    <h3 class="text-xl font-bold mb-4">{{at $titles $i}}</h3>
    <p class="text-sm opacity-60 leading-relaxed">{{at $descs $i}}</p>
  </article>{{end}}
</div>{{end}}

{{define "testimonials"}}{{$s := .S}}<div class="grid gap-8 md:grid-cols-2">{{range recs .D "items"}}
  <blockquote class="p-10 rounded-3xl border {{$s.Border}} {{$s.Secondary}}">
    <p class="text-xl italic mb-8">&ldquo;{{str . "quote"}}&rdquo;</p>
    <footer class="flex items-center gap-4">{{with opt . "imageUrl"}}
      <img src="{{.}}" alt="" class="w-12 h-12 rounded-full object-cover">{{end}}
      <div><div class="font-bold">{{str . "name"}}</div><div class="text-sm {{$s.Muted}}">{{opt . "role"}}</div></div>
    </footer>
  </blockquote>{{end}}
</div>{{end}}

{{define "pricing"}}{{$s := .S}}<div class="grid gap-8 md:grid-cols-3">{{range recs .D "plans"}}
  <div class="p-10 rounded-3xl border {{$s.Border}} {{if flag . "highlighted"}}{{$s.Accent}} scale-105{{else}}{{$s.Secondary}}{{end}}">
    <h3 class="text-lg font-bold uppercase tracking-widest mb-4">{{str . "name"}}</h3>
    <div class="text-5xl font-black mb-8">{{str . "price"}}</div>
    <ul class="space-y-3">{{range strs . "features"}}
      <li>{{.}}</li>{{end}}
    </ul>
  </div>{{end}}
</div>{{end}}

{{define "contact"}}{{$d := .D}}<div class="text-center">
  <h2 class="text-5xl font-black mb-12">{{str $d "heading"}}</h2>
  <address class="not-italic space-y-4 text-lg {{.S.Muted}}">
    <a href="mailto:{{str $d "email"}}" class="block font-bold">{{str $d "email"}}</a>{{with opt $d "phone"}}
    <div>{{.}}</div>{{end}}{{with opt $d "address"}}
    <div>{{.}}</div>{{end}}
  </address>
</div>{{end}}

{{define "logogrid"}}{{$d := .D}}<div class="grid gap-8 items-center {{grid (num $d "columns")}}">{{range strs $d "logos"}}
  <img src="{{.}}" alt="logo" class="mx-auto h-12 object-contain opacity-60">{{end}}
</div>{{end}}

{{define "video"}}{{$d := .D}}<div class="text-center">{{with opt $d "heading"}}
  <h2 class="text-4xl font-black mb-10">{{.}}</h2>{{end}}
  <div class="aspect-video w-full overflow-hidden rounded-3xl">
    <iframe src="{{str $d "videoUrl"}}" class="w-full h-full" allowfullscreen></iframe>
  </div>
</div>{{end}}

{{define "buttons"}}{{$d := .D}}{{$s := .S}}<div class="flex flex-wrap gap-4 {{justify (str $d "align")}}">{{range recs $d "buttons"}}
  <a href="{{default "#" (opt . "url")}}" class="px-8 py-4 font-bold rounded-xl {{$s.Accent}}">{{str . "label"}}</a>{{end}}
</div>{{end}}

{{define "features"}}{{$d := .D}}{{$s := .S}}<div class="grid gap-10 {{grid (num $d "columns")}}">{{range recs $d "items"}}
  <div class="p-8 rounded-3xl {{$s.Secondary}}">
    <h3 class="text-xl font-bold mb-3">{{str . "title"}}</h3>
    <p class="{{$s.Muted}}">{{str . "description"}}</p>
  </div>{{end}}
</div>{{end}}

{{define "stats"}}{{$d := .D}}{{$s := .S}}<div class="flex {{if eq (str $d "layout") "vertical"}}flex-col{{else}}flex-row justify-around{{end}} gap-12 text-center">{{range recs $d "stats"}}
  <div>
    <div class="text-5xl font-black">{{str . "value"}}</div>
    <div class="mt-2 text-sm uppercase tracking-widest {{$s.Muted}}">{{str . "label"}}</div>
  </div>{{end}}
</div>{{end}}

{{define "cta"}}{{$d := .D}}<div class="{{align (str $d "align")}} p-16 rounded-3xl {{.S.Secondary}}">
  <h2 class="text-5xl font-black mb-6">{{str $d "heading"}}</h2>{{with opt $d "supportingText"}}
  <p class="text-xl mb-10 opacity-70">{{.}}</p>{{end}}
  <a href="#" class="inline-block px-10 py-4 font-black uppercase rounded-2xl {{.S.Accent}}">{{str $d "button"}}</a>
</div>{{end}}

{{define "faq"}}{{$s := .S}}<div class="space-y-4">{{range recs .D "items"}}
  <details class="p-6 rounded-2xl border {{$s.Border}}">
    <summary class="font-bold cursor-pointer">{{str . "question"}}</summary>
    <p class="mt-4 {{$s.Muted}}">{{str . "answer"}}</p>
  </details>{{end}}
</div>{{end}}

{{define "divider"}}{{$d := .D}}<div class="{{spacing (str $d "height")}}">{{if flag $d "showLine"}}<hr class="border-t {{.S.Border}}">{{end}}</div>{{end}}

{{define "footer"}}{{$d := .D}}<footer class="{{align (str $d "align")}} text-sm {{.S.Muted}}">{{str $d "text"}}</footer>{{end}}

{{define "placeholder"}}<div class="py-16 px-12 text-center border-y border-dashed {{.S.Border}} opacity-50" data-placeholder="unknown-type">
  <p class="text-sm font-bold uppercase tracking-widest">Unsupported section: {{.Type}}</p>
</div>{{end}}
`
