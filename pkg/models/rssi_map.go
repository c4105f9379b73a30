package models

import (
	"encoding/json"
	"sync"

	"github.com/Krajiyah/uwb-sdk/pkg/util"
	"github.com/bradfitz/slice"
)

// RssiEntry is the latest advertisement seen from one accessory
type RssiEntry struct {
	Name string
	MAC  string
	Rssi int
}

// RssiMap keeps the latest RSSI per advertising accessory during a scan window
type RssiMap struct {
	data  map[string]RssiEntry
	mutex sync.RWMutex
}

// NewRssiMap will return newly init struct
func NewRssiMap() *RssiMap {
	return &RssiMap{data: map[string]RssiEntry{}}
}

// Set will update the map
func (rm *RssiMap) Set(name, mac string, rssi int) {
	mac = util.NormalizeMAC(mac)
	rm.mutex.Lock()
	defer rm.mutex.Unlock()
	rm.data[mac] = RssiEntry{Name: name, MAC: mac, Rssi: rssi}
}

// Get will get from map
func (rm *RssiMap) Get(mac string) (int, bool) {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()
	e, ok := rm.data[util.NormalizeMAC(mac)]
	return e.Rssi, ok
}

// Len returns the number of accessories in the map
func (rm *RssiMap) Len() int {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()
	return len(rm.data)
}

// Drain empties the map and returns its entries strongest signal first
func (rm *RssiMap) Drain() []RssiEntry {
	rm.mutex.Lock()
	entries := make([]RssiEntry, 0, len(rm.data))
	for _, e := range rm.data {
		entries = append(entries, e)
	}
	rm.data = map[string]RssiEntry{}
	rm.mutex.Unlock()
	slice.Sort(entries, func(i, j int) bool {
		if entries[i].Rssi == entries[j].Rssi {
			return entries[i].MAC < entries[j].MAC
		}
		return entries[i].Rssi > entries[j].Rssi
	})
	return entries
}

// String returns json string of data
func (rm *RssiMap) String() string {
	rm.mutex.RLock()
	defer rm.mutex.RUnlock()
	b, _ := json.Marshal(rm.data)
	return string(b)
}
