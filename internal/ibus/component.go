package ibus

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
)

// Component describes the engine to ibus-daemon. It is written to
// /usr/share/ibus/component or ~/.local/share/ibus/component.
type Component struct {
	XMLName     xml.Name          `xml:"component"`
	Name        string            `xml:"name"`
	Description string            `xml:"description"`
	Exec        string            `xml:"exec"`
	Version     string            `xml:"version"`
	Author      string            `xml:"author"`
	License     string            `xml:"license"`
	Homepage    string            `xml:"homepage,omitempty"`
	Textdomain  string            `xml:"textdomain"`
	Engines     []ComponentEngine `xml:"engines>engine"`
}

// ComponentEngine is one <engine> entry.
type ComponentEngine struct {
	Name        string `xml:"name"`
	Language    string `xml:"language"`
	License     string `xml:"license"`
	Author      string `xml:"author"`
	Icon        string `xml:"icon,omitempty"`
	Layout      string `xml:"layout"`
	LongName    string `xml:"longname"`
	Description string `xml:"description"`
	Rank        int    `xml:"rank"`
	Symbol      string `xml:"symbol"`
}

// ComponentOptions fills in a Component.
type ComponentOptions struct {
	BusName    string
	EngineName string
	Exec       string
	Version    string
	Layout     string
	Icon       string
}

// NewComponent builds the component for one engine.
func NewComponent(opts ComponentOptions) Component {
	layout := opts.Layout
	if layout == "" {
		layout = "us"
	}
	return Component{
		Name:        opts.BusName,
		Description: "Rime input method engine",
		Exec:        opts.Exec + " --ibus",
		Version:     opts.Version,
		Author:      "rimebridge",
		License:     "BSD-3-Clause",
		Textdomain:  "rimebridge",
		Engines: []ComponentEngine{{
			Name:        opts.EngineName,
			Language:    "zh",
			License:     "BSD-3-Clause",
			Author:      "rimebridge",
			Icon:        opts.Icon,
			Layout:      layout,
			LongName:    "Rime",
			Description: "Chinese input through the Rime engine",
			Rank:        0,
			Symbol:      "ㄓ",
		}},
	}
}

// Marshal renders the component XML with its declaration.
func (c Component) Marshal() ([]byte, error) {
	out, err := xml.MarshalIndent(c, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("marshal component: %w", err)
	}
	return append([]byte(`<?xml version="1.0" encoding="utf-8"?>`+"\n"), append(out, '\n')...), nil
}

// Install writes the component XML to path.
func (c Component) Install(path string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create component directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write component: %w", err)
	}
	return nil
}
