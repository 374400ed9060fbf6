package dataset

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
)

// CardOptions describe the dataset for the rendered card.
type CardOptions struct {
	Name         string
	Source       string
	Description  string
	MetadataFile string
}

// CardFilename is where Export writes the dataset card, in the
// dataset's output directory.
const CardFilename = "dataset_card.md"

const cardTemplate = `# {{.Name}}

metadata file: ` + "`{{.MetadataFile}}`" + `

## Original Source
` + "`{{.Source}}`" + `

## Description
{{.Description}}

## Dataset Information

### Total Number of Samples
` + "`{{.Total}}`" + `

### Number of Corrupt Files
` + "`{{.Corrupt}}`" + `

### Audio Durations
Total Duration: ` + "`{{printf \"%.4f\" .TotalHours}}`" + ` Hours

Max Duration: ` + "`{{printf \"%.3f\" .MaxDuration}}`" + ` Seconds

Min Duration: ` + "`{{printf \"%.3f\" .MinDuration}}`" + ` Seconds

Average Duration: ` + "`{{printf \"%.3f\" .MeanDuration}}`" + ` Seconds

### Number of Speakers
` + "`{{.Speakers}}`" + `

### Number of Emotions
` + "`{{.Emotions}}`" + `

### Sample Rates
` + "`{{.SampleRates}}`" + `

### Audio Format
` + "`{{.AudioFormat}}`" + `

### Metadata Labels
` + "`{{.Labels}}`" + `
`

type cardData struct {
	CardOptions
	Total        int
	Corrupt      int
	TotalHours   float64
	MaxDuration  float64
	MinDuration  float64
	MeanDuration float64
	Speakers     int
	Emotions     int
	SampleRates  string
	AudioFormat  string
	Labels       string
}

// WriteCard renders the dataset card from aggregate statistics over
// the samples. Corrupt files are rows whose duration carries the -1
// sentinel.
func WriteCard(samples []Sample, outDir string, opts CardOptions) error {
	data := cardData{CardOptions: opts}
	if data.Name == "" {
		data.Name = filepath.Base(outDir)
	}
	if data.Source == "" {
		data.Source = "Fill this in if you want"
	}
	if data.Description == "" {
		data.Description = "Fill this in if you want"
	}

	data.Total = len(samples)

	speakers := map[string]struct{}{}
	emotions := map[string]struct{}{}
	rates := map[int]struct{}{}
	var totalSec, maxSec, mean float64
	minSec := math.Inf(1)

	for _, s := range samples {
		if s.AudioLen == -1 {
			data.Corrupt++
		}
		totalSec += s.AudioLen
		if s.AudioLen > maxSec {
			maxSec = s.AudioLen
		}
		if s.AudioLen < minSec {
			minSec = s.AudioLen
		}
		if s.Speaker != "" {
			speakers[s.Speaker] = struct{}{}
		}
		if s.Emotion != "" {
			emotions[s.Emotion] = struct{}{}
		}
		rates[s.SampleRate] = struct{}{}
	}

	if len(samples) > 0 {
		mean = totalSec / float64(len(samples))
		data.AudioFormat = filepath.Ext(samples[0].AudioFile)
	} else {
		minSec = 0
	}

	data.TotalHours = totalSec / 3600
	data.MaxDuration = maxSec
	data.MinDuration = minSec
	data.MeanDuration = mean

	// Single-speaker corpora rarely carry a speaker column.
	data.Speakers = len(speakers)
	if data.Speakers == 0 {
		data.Speakers = 1
	}
	data.Emotions = len(emotions)

	rateList := make([]int, 0, len(rates))
	for r := range rates {
		rateList = append(rateList, r)
	}
	sort.Ints(rateList)
	rateStrs := make([]string, len(rateList))
	for i, r := range rateList {
		rateStrs[i] = fmt.Sprintf("%d", r)
	}
	data.SampleRates = "[" + strings.Join(rateStrs, ", ") + "]"
	data.Labels = "[" + strings.Join(Columns(samples), ", ") + "]"

	tmpl := template.Must(template.New("card").Parse(cardTemplate))
	f, err := os.Create(filepath.Join(outDir, CardFilename))
	if err != nil {
		return err
	}
	if err := tmpl.Execute(f, data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
