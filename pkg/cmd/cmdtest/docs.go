package cmdtest

// SampleVault holds two tagged documents and one without a header.
var SampleVault = map[string]string{
	"a.md":       "---\ntags: [project, go]\n---\n# A\n",
	"notes/b.md": "---\ntags: Project\n---\nbody\n",
	"c.md":       "no header here\n",
}
