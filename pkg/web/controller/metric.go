// Copyright 2025 Alibaba Group Holding Ltd.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package controller

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/mem"
	"github.com/shirou/gopsutil/process"
	"k8s.io/apimachinery/pkg/util/wait"

	"github.com/filemate-ai/filemate/pkg/log"
	"github.com/filemate-ai/filemate/pkg/web/model"
)

const defaultProcessLimit = 15

// MetricController handles system metrics requests
type MetricController struct {
	*basicController
}

func NewMetricController(ctx *gin.Context) *MetricController {
	return &MetricController{basicController: newBasicController(ctx)}
}

// GetMetrics returns current system metrics
func (c *MetricController) GetMetrics() {
	metrics, err := c.readMetrics()
	if err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeRuntimeError,
			fmt.Sprintf("error reading runtime metrics. %v", err),
		)
		return
	}

	c.RespondSuccess(metrics)
}

// WatchMetrics streams system metrics as line-delimited JSON every second
func (c *MetricController) WatchMetrics() {
	c.setupSSEResponse()

	wait.Until(func() {
		if flusher, ok := c.ctx.Writer.(http.Flusher); ok {
			defer flusher.Flush()
		}
		var msg []byte
		metrics, err := c.readMetrics()
		if err != nil {
			msg, _ = json.Marshal(map[string]string{ //nolint:errchkjson
				"error": err.Error(),
			})
		} else {
			msg, _ = json.Marshal(metrics) //nolint:errchkjson
		}
		if _, err := c.ctx.Writer.Write(append(msg, '\n')); err != nil {
			log.Error("WatchMetrics write data %s error: %v", string(msg), err)
		}
	}, time.Second, c.ctx.Request.Context().Done())
}

// GetProcesses returns the processes using the most memory
func (c *MetricController) GetProcesses() {
	limit := c.QueryInt64(c.ctx.Query("limit"), defaultProcessLimit)
	if limit <= 0 {
		limit = defaultProcessLimit
	}

	procs, err := readProcesses(int(limit))
	if err != nil {
		c.RespondError(
			http.StatusInternalServerError,
			model.ErrorCodeRuntimeError,
			fmt.Sprintf("error listing processes. %v", err),
		)
		return
	}
	c.RespondSuccess(procs)
}

// readMetrics collects current CPU, memory and disk metrics
func (c *MetricController) readMetrics() (*model.Metrics, error) {
	metric := model.NewMetrics()

	metric.CpuCount = float64(runtime.GOMAXPROCS(-1))
	cpuPercent, err := cpu.Percent(time.Second, false)
	if err != nil {
		return nil, fmt.Errorf("failed to get CPU percent: %w", err)
	}
	if len(cpuPercent) > 0 {
		metric.CpuUsedPct = cpuPercent[0]
	}

	vmStat, err := mem.VirtualMemory()
	if err != nil {
		return nil, fmt.Errorf("failed to get memory info: %w", err)
	}
	metric.MemTotalMiB = float64(vmStat.Total) / 1024 / 1024
	metric.MemUsedMiB = float64(vmStat.Used) / 1024 / 1024

	diskStat, err := disk.Usage(metricsDiskPath())
	if err != nil {
		return nil, fmt.Errorf("failed to get disk usage: %w", err)
	}
	metric.DiskTotalMiB = float64(diskStat.Total) / 1024 / 1024
	metric.DiskUsedMiB = float64(diskStat.Used) / 1024 / 1024

	return metric, nil
}

// metricsDiskPath is the filesystem disk usage is reported for.
func metricsDiskPath() string {
	if dispatcher != nil {
		return dispatcher.Service().Resolver().Policy().Home()
	}
	if runtime.GOOS == "windows" {
		return `C:\`
	}
	return "/"
}

func readProcesses(limit int) ([]model.ProcessInfo, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	infos := make([]model.ProcessInfo, 0, len(procs))
	for _, p := range procs {
		memInfo, err := p.MemoryInfo()
		if err != nil || memInfo == nil {
			// gone or not ours to inspect
			continue
		}
		name, _ := p.Name()
		memPct, _ := p.MemoryPercent()
		cpuPct, _ := p.CPUPercent()
		infos = append(infos, model.ProcessInfo{
			PID:        p.Pid,
			Name:       name,
			MemRSSMiB:  float64(memInfo.RSS) / 1024 / 1024,
			MemUsedPct: memPct,
			CpuUsedPct: cpuPct,
		})
	}

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].MemRSSMiB > infos[j].MemRSSMiB
	})
	if len(infos) > limit {
		infos = infos[:limit]
	}
	return infos, nil
}
