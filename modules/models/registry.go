package models

// ModelSpec describes one supported transcription model. The set is a
// fixed, hard-coded closed set (tiny/base/small) rather than the full
// upstream model universe: this spec is scoped to the co-located
// whisper.cpp-style transcription server, which only ever needs a handful
// of locally cached ggml binaries.
type ModelSpec struct {
	Name      string
	URL       string
	SizeMB    int
	Version   string
	Filename  string // basename under <data_dir>/models/
}

// SupportedModels is the closed set of downloadable models.
var SupportedModels = []ModelSpec{
	{
		Name:     "tiny",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-tiny.en.bin",
		SizeMB:   75,
		Version:  "1",
		Filename: "ggml-tiny.en.bin",
	},
	{
		Name:     "base",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.en.bin",
		SizeMB:   142,
		Version:  "1",
		Filename: "ggml-base.en.bin",
	},
	{
		Name:     "small",
		URL:      "https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small.en.bin",
		SizeMB:   466,
		Version:  "1",
		Filename: "ggml-small.en.bin",
	},
}

// Lookup returns the ModelSpec for name, and whether it is supported.
func Lookup(name string) (ModelSpec, bool) {
	for _, m := range SupportedModels {
		if m.Name == name {
			return m, true
		}
	}
	return ModelSpec{}, false
}
