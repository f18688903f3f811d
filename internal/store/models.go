package store

import "time"

// Device represents a configured appliance.
// Token and Key are hidden from API/JSON serialization via json:"-".
type Device struct {
	ID           string         `json:"id"`
	Type         byte           `json:"type"`
	FriendlyName string         `json:"friendly_name,omitempty"`
	Transport    string         `json:"transport"` // "tcp" or "serial"
	Address      string         `json:"address,omitempty"`
	Port         int            `json:"port,omitempty"`
	SerialPort   string         `json:"serial_port,omitempty"`
	Token        string         `json:"-"`
	Key          string         `json:"-"`
	Version      byte           `json:"version,omitempty"`
	Customize    string         `json:"customize,omitempty"`
	AddedAt      time.Time      `json:"added_at"`
	LastSeen     time.Time      `json:"last_seen"`
	State        map[string]any `json:"state,omitempty"`
}

// deviceStorage is the internal struct used for DB serialization,
// preserving the pairing credentials on disk.
type deviceStorage struct {
	ID           string         `json:"id"`
	Type         byte           `json:"type"`
	FriendlyName string         `json:"friendly_name,omitempty"`
	Transport    string         `json:"transport"`
	Address      string         `json:"address,omitempty"`
	Port         int            `json:"port,omitempty"`
	SerialPort   string         `json:"serial_port,omitempty"`
	Token        string         `json:"token,omitempty"`
	Key          string         `json:"key,omitempty"`
	Version      byte           `json:"version,omitempty"`
	Customize    string         `json:"customize,omitempty"`
	AddedAt      time.Time      `json:"added_at"`
	LastSeen     time.Time      `json:"last_seen"`
	State        map[string]any `json:"state,omitempty"`
}

func toStorage(dev *Device) deviceStorage {
	return deviceStorage{
		ID:           dev.ID,
		Type:         dev.Type,
		FriendlyName: dev.FriendlyName,
		Transport:    dev.Transport,
		Address:      dev.Address,
		Port:         dev.Port,
		SerialPort:   dev.SerialPort,
		Token:        dev.Token,
		Key:          dev.Key,
		Version:      dev.Version,
		Customize:    dev.Customize,
		AddedAt:      dev.AddedAt,
		LastSeen:     dev.LastSeen,
		State:        dev.State,
	}
}

func fromStorage(st deviceStorage) *Device {
	return &Device{
		ID:           st.ID,
		Type:         st.Type,
		FriendlyName: st.FriendlyName,
		Transport:    st.Transport,
		Address:      st.Address,
		Port:         st.Port,
		SerialPort:   st.SerialPort,
		Token:        st.Token,
		Key:          st.Key,
		Version:      st.Version,
		Customize:    st.Customize,
		AddedAt:      st.AddedAt,
		LastSeen:     st.LastSeen,
		State:        st.State,
	}
}
