package theme

var builtinThemes = []Theme{
	{ID: "light", Group: "Minimal", Bg: "bg-white", Text: "text-gray-900", Border: "border-gray-300", Accent: "bg-black text-white hover:bg-black/90", Secondary: "bg-gray-100", Muted: "text-gray-600"},
	{ID: "dark", Group: "Minimal", Bg: "bg-zinc-950", Text: "text-white", Border: "border-zinc-800", Accent: "bg-white text-black hover:bg-white/90", Secondary: "bg-zinc-900", Muted: "text-zinc-400"},
	{ID: "gray", Group: "Minimal", Bg: "bg-gray-50", Text: "text-gray-900", Border: "border-gray-300", Accent: "bg-gray-900 text-white hover:bg-black", Secondary: "bg-gray-200", Muted: "text-gray-600"},
	{ID: "blue", Group: "Startup", Bg: "bg-blue-50", Text: "text-blue-950", Border: "border-blue-200", Accent: "bg-blue-600 text-white hover:bg-blue-700", Secondary: "bg-blue-100", Muted: "text-blue-700"},
	{ID: "indigo", Group: "Startup", Bg: "bg-indigo-50", Text: "text-indigo-950", Border: "border-indigo-200", Accent: "bg-indigo-600 text-white hover:bg-indigo-700", Secondary: "bg-indigo-100", Muted: "text-indigo-700"},
	{ID: "purple", Group: "Startup", Bg: "bg-purple-50", Text: "text-purple-950", Border: "border-purple-200", Accent: "bg-purple-600 text-white hover:bg-purple-700", Secondary: "bg-purple-100", Muted: "text-purple-700"},
	{ID: "slate", Group: "Business", Bg: "bg-slate-50", Text: "text-slate-900", Border: "border-slate-300", Accent: "bg-slate-900 text-white hover:bg-slate-800", Secondary: "bg-slate-100", Muted: "text-slate-600"},
	{ID: "emerald", Group: "Business", Bg: "bg-emerald-50", Text: "text-emerald-950", Border: "border-emerald-200", Accent: "bg-emerald-600 text-white hover:bg-emerald-700", Secondary: "bg-emerald-100", Muted: "text-emerald-700"},
	{ID: "charcoal", Group: "Business", Bg: "bg-zinc-900", Text: "text-zinc-100", Border: "border-zinc-700", Accent: "bg-zinc-100 text-zinc-900 hover:bg-zinc-200", Secondary: "bg-zinc-800", Muted: "text-zinc-400"},
	{ID: "peach", Group: "Creative", Bg: "bg-orange-50", Text: "text-orange-950", Border: "border-orange-200", Accent: "bg-orange-600 text-white hover:bg-orange-700", Secondary: "bg-orange-100", Muted: "text-orange-700"},
	{ID: "rose", Group: "Creative", Bg: "bg-rose-50", Text: "text-rose-950", Border: "border-rose-200", Accent: "bg-rose-600 text-white hover:bg-rose-700", Secondary: "bg-rose-100", Muted: "text-rose-700"},
	{ID: "teal", Group: "Creative", Bg: "bg-teal-50", Text: "text-teal-950", Border: "border-teal-200", Accent: "bg-teal-600 text-white hover:bg-teal-700", Secondary: "bg-teal-100", Muted: "text-teal-700"},
	{ID: "midnight", Group: "Premium", Bg: "bg-slate-950", Text: "text-slate-100", Border: "border-slate-800", Accent: "bg-indigo-500 text-white hover:bg-indigo-600", Secondary: "bg-slate-900", Muted: "text-slate-400"},
	{ID: "coffee", Group: "Premium", Bg: "bg-stone-50", Text: "text-stone-900", Border: "border-stone-300", Accent: "bg-stone-800 text-white hover:bg-stone-900", Secondary: "bg-stone-100", Muted: "text-stone-600"},
	{ID: "cyber", Group: "Tech", Bg: "bg-neutral-950", Text: "text-neutral-100", Border: "border-neutral-800", Accent: "bg-cyan-500 text-black hover:bg-cyan-400", Secondary: "bg-neutral-900", Muted: "text-neutral-400"},
	{ID: "terminal", Group: "Tech", Bg: "bg-black", Text: "text-green-400", Border: "border-green-900", Accent: "bg-green-600 text-black hover:bg-green-500", Secondary: "bg-zinc-900", Muted: "text-green-700"},
	{ID: "lavender", Group: "Soft", Bg: "bg-violet-50", Text: "text-violet-950", Border: "border-violet-200", Accent: "bg-violet-600 text-white hover:bg-violet-700", Secondary: "bg-violet-100", Muted: "text-violet-700"},
	{ID: "mint", Group: "Soft", Bg: "bg-emerald-50", Text: "text-emerald-950", Border: "border-emerald-200", Accent: "bg-emerald-600 text-white hover:bg-emerald-700", Secondary: "bg-emerald-100", Muted: "text-emerald-700"},
}

// Builtin returns the stock palette with "light" as default.
func Builtin() *Palette {
	p, err := NewPalette(DefaultID, builtinThemes...)
	if err != nil {
		panic(err)
	}
	return p
}
