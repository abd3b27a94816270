// Regenerates README.md from the command registry and README.md.tmpl.
package main

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"text/template"

	_ "entrychime/internal/commands/core"

	cmdsound "entrychime/internal/commands/sound"
	"entrychime/internal/core"
)

type cmdInfo struct {
	Name        string
	Description string
	Category    string
}

func main() {
	// The voice commands are normally registered from the running bot;
	// their definitions are all the readme needs.
	core.RegisterCommand(&cmdsound.StopCommand{})
	core.RegisterCommand(&cmdsound.RandomCommand{})

	sections := make(map[string][]cmdInfo)
	for _, cmd := range core.AllCommands() {
		info := cmdInfo{
			Name:        "/" + cmd.Name(),
			Description: cmd.Description(),
			Category:    cmd.Category(),
		}
		sections[info.Category] = append(sections[info.Category], info)
	}

	var categories []string
	for cat := range sections {
		categories = append(categories, cat)
		sort.Slice(sections[cat], func(i, j int) bool {
			return sections[cat][i].Name < sections[cat][j].Name
		})
	}
	sort.Strings(categories)

	var buf bytes.Buffer
	for _, cat := range categories {
		fmt.Fprintf(&buf, "### %s\n\n", cat)
		for _, c := range sections[cat] {
			fmt.Fprintf(&buf, "* **`%s`**\n  %s\n\n", c.Name, c.Description)
		}
	}

	tmplData, err := os.ReadFile("README.md.tmpl")
	if err != nil {
		panic(err)
	}

	tmpl, err := template.New("readme").Parse(string(tmplData))
	if err != nil {
		panic(err)
	}

	var out bytes.Buffer
	if err := tmpl.Execute(&out, map[string]any{"CommandSections": buf.String()}); err != nil {
		panic(err)
	}

	if err := os.WriteFile("README.md", out.Bytes(), 0644); err != nil {
		panic(err)
	}
}
