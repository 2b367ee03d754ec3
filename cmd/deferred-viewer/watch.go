package main

import (
	"log"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// shaderWatcher flags a reload whenever a shader file in dir changes.
// The render loop polls and clears the flag between frames.
type shaderWatcher struct {
	watcher *fsnotify.Watcher
	changed atomic.Bool
}

func watchShaders(dir string) (*shaderWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	sw := &shaderWatcher{watcher: watcher}
	go sw.run()
	return sw, nil
}

func (sw *shaderWatcher) run() {
	for {
		select {
		case event, ok := <-sw.watcher.Events:
			if !ok {
				return
			}
			if isShaderEvent(event) {
				sw.changed.Store(true)
			}
		case err, ok := <-sw.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("shader watcher: %v", err)
		}
	}
}

func isShaderEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return false
	}
	switch strings.ToLower(filepath.Ext(event.Name)) {
	case ".vert", ".frag":
		return true
	}
	return false
}

// take reports whether shaders changed since the last call.
func (sw *shaderWatcher) take() bool {
	if sw == nil {
		return false
	}
	return sw.changed.Swap(false)
}

func (sw *shaderWatcher) Close() error {
	if sw == nil {
		return nil
	}
	return sw.watcher.Close()
}
