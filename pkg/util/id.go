package util

import (
	"fmt"
	"strconv"
	"sync"
	"time"
)

func makeCRC16Table(poly uint16) [256]uint16 {
	var tab [256]uint16
	for i := 0; i < 256; i++ {
		var crc uint16 = uint16(i) << 8
		for j := 0; j < 8; j++ {
			if crc&0x8000 != 0 {
				crc = (crc << 1) ^ poly
			} else {
				crc <<= 1
			}
		}
		tab[i] = crc
	}
	return tab
}

var crc16Tab = makeCRC16Table(0x1021)

func crc16CCITT(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		idx := byte((crc >> 8) ^ uint16(b)) // 高字节异或数据
		crc = (crc << 8) ^ crc16Tab[idx]
	}
	return crc
}

func GetCrc16(val int64) uint16 {
	return crc16CCITT([]byte(strconv.FormatInt(val, 10))) % 16384
}

// IDGenerator 基于时间戳的唯一 ID 生成器。
// 格式：<毫秒时间戳>-<机器标签>-<序号>，同一毫秒内用序号去重。
type IDGenerator struct {
	mu      sync.Mutex
	machine uint16
	lastMs  int64
	seq     int
}

func NewIDGenerator(machineID int64) *IDGenerator {
	return &IDGenerator{machine: GetCrc16(machineID)}
}

// Next returns a time-ordered unique token.
func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	if now == g.lastMs {
		g.seq++
	} else {
		g.lastMs = now
		g.seq = 0
	}
	return fmt.Sprintf("%d-%04x-%d", now, g.machine, g.seq)
}
