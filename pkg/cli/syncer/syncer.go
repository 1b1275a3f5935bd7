/* Copyright 2025 StoryLab Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package syncer implements the auto-save coordinator. Edits are written to
// the local cache immediately and the full save pipeline, index update and
// mirror upload included, runs once after a quiet period, collapsing rapid
// edits into a single remote write.
package syncer

import (
	"sync"
	"time"

	"github.com/dahtruth/storylab/pkg/cli/context"
	"github.com/dahtruth/storylab/pkg/cli/project"
	"github.com/dahtruth/storylab/pkg/clock"
	"github.com/pkg/errors"
)

// Status is the externally visible save state
type Status string

const (
	// StatusIdle means no save is pending or running
	StatusIdle Status = "idle"
	// StatusSyncing means a save pipeline is running
	StatusSyncing Status = "syncing"
	// StatusSaved means the last save pipeline completed
	StatusSaved Status = "saved"
	// StatusError means the last save pipeline failed
	StatusError Status = "error"
)

// StatusUpdate is a snapshot of the coordinator state
type StatusUpdate struct {
	Status Status
	Err    error
	At     string
}

// DefaultInterval is the quiet period used when the context carries none
const DefaultInterval = 3 * time.Second

// Coordinator debounces saves for one author's working set. At most one timer
// is live at a time and only the latest queued payload survives.
type Coordinator struct {
	ctx context.StoryLabCtx

	mu      sync.Mutex
	timer   *time.Timer
	pending *project.Project
	last    StatusUpdate
	subs    []chan StatusUpdate

	// saveMu serializes save pipelines so Flush can wait out an in-flight one
	saveMu sync.Mutex
}

// New returns a coordinator bound to the given runtime context
func New(ctx context.StoryLabCtx) *Coordinator {
	return &Coordinator{
		ctx:  ctx,
		last: StatusUpdate{Status: StatusIdle},
	}
}

func (c *Coordinator) interval() time.Duration {
	if c.ctx.AutosaveInterval > 0 {
		return c.ctx.AutosaveInterval
	}

	return DefaultInterval
}

// QueueAutoSave writes the project to the local cache right away and schedules
// the full save pipeline after the quiet period. Queueing again before the
// timer fires replaces the payload and restarts the timer.
func (c *Coordinator) QueueAutoSave(p project.Project) error {
	if err := project.Save(c.ctx, &p, project.SaveOptions{}); err != nil {
		return errors.Wrap(err, "writing the local copy")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pending = &p
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.interval(), c.fire)

	return nil
}

// CancelAutoSave stops the timer and discards any pending payload. The local
// cache write from QueueAutoSave is not undone.
func (c *Coordinator) CancelAutoSave() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.pending = nil
}

// FlushAutoSave runs any pending save synchronously, waiting out an in-flight
// pipeline first. It returns the error of the save it ran, or the last save
// error if nothing was pending.
func (c *Coordinator) FlushAutoSave() error {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	p := c.pending
	c.pending = nil
	c.mu.Unlock()

	if p != nil {
		return c.doSave(*p)
	}

	// wait for an in-flight pipeline, if any, and report its outcome
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last.Err
}

// Status returns the latest status snapshot
func (c *Coordinator) Status() StatusUpdate {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last
}

// Subscribe returns a channel receiving status transitions. Slow receivers
// miss updates rather than block the coordinator.
func (c *Coordinator) Subscribe() <-chan StatusUpdate {
	ch := make(chan StatusUpdate, 16)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.subs = append(c.subs, ch)

	return ch
}

func (c *Coordinator) fire() {
	c.mu.Lock()
	p := c.pending
	c.pending = nil
	c.mu.Unlock()

	if p == nil {
		return
	}

	c.doSave(*p)
}

func (c *Coordinator) doSave(p project.Project) error {
	c.saveMu.Lock()
	defer c.saveMu.Unlock()

	c.setStatus(StatusSyncing, nil)

	err := project.Save(c.ctx, &p, project.SaveOptions{UpdateIndex: true, CloudSync: true})
	if err != nil {
		c.setStatus(StatusError, err)
		return errors.Wrap(err, "running the save pipeline")
	}

	c.setStatus(StatusSaved, nil)
	return nil
}

func (c *Coordinator) setStatus(s Status, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.last = StatusUpdate{
		Status: s,
		Err:    err,
		At:     clock.NowTimestamp(c.ctx.Clock),
	}
	for _, ch := range c.subs {
		select {
		case ch <- c.last:
		default:
		}
	}
}
