/*
Package config loads host-supplied engine settings from YAML or JSON.

# Overview

Settings carries only what the engine exposes as knobs: the attachment
marker prefix, the lifecycle journal location, and the visibility
observer geometry. Every field is optional; the zero value means "use
the engine default", and the treewire package applies those defaults, so
a partial file (or an empty one) is always valid.

# Basic Usage

Load settings from a file and hand them to the engine:

	settings, err := config.FromFile("treewire.yaml")
	if err != nil {
	    log.Fatal(err)
	}
	opts, err := treewire.FromConfig(settings)
	if err != nil {
	    log.Fatal(err)
	}
	eng := treewire.New(binder, opts...)

A treewire.yaml might look like:

	marker_key: data-wired
	journal_path: ./lifecycle.db
	root_margin: 50px
	thresholds: [0, 0.5, 1]

# Formats

FromFile picks the parser by extension (.yaml, .yml, .json); FromYAML
and FromJSON take raw bytes. Unknown keys are ignored, so engine
settings can live inside a larger application config file.
*/
package config
