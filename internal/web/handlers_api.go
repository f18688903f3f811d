package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"midea-bridge/internal/appliance"
	"midea-bridge/internal/store"
)

// DeviceView is the API representation of a device, combining the stored
// record with the live state snapshot.
type DeviceView struct {
	ID           string         `json:"id"`
	Type         string         `json:"type"` // hex, e.g. "A1"
	TypeName     string         `json:"type_name"`
	FriendlyName string         `json:"friendly_name,omitempty"`
	Transport    string         `json:"transport"`
	Address      string         `json:"address,omitempty"`
	Port         int            `json:"port,omitempty"`
	SerialPort   string         `json:"serial_port,omitempty"`
	Version      byte           `json:"version"`
	Customize    string         `json:"customize,omitempty"`
	Online       bool           `json:"online"`
	State        map[string]any `json:"state"`
}

func (s *Server) deviceView(dev *store.Device) DeviceView {
	v := DeviceView{
		ID:           dev.ID,
		Type:         fmt.Sprintf("%02X", dev.Type),
		TypeName:     appliance.TypeName(dev.Type),
		FriendlyName: dev.FriendlyName,
		Transport:    dev.Transport,
		Address:      dev.Address,
		Port:         dev.Port,
		SerialPort:   dev.SerialPort,
		Version:      dev.Version,
		Customize:    dev.Customize,
		State:        dev.State,
	}
	// Prefer the live snapshot over the persisted one.
	if state, err := s.core.DeviceState(dev.ID); err == nil {
		v.Online = true
		v.State = state
	}
	return v
}

func (s *Server) handleAPIListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.core.Store().ListDevices()
	if err != nil {
		s.logger.Error("list devices", "err", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	views := make([]DeviceView, 0, len(devices))
	for _, dev := range devices {
		views = append(views, s.deviceView(dev))
	}
	s.writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleAPIGetDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	dev, err := s.core.Store().GetDevice(id)
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "device not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, s.deviceView(dev))
}

type addDeviceRequest struct {
	ID           string `json:"id"`
	Type         string `json:"type"` // hex, e.g. "A1" or "0xAC"
	FriendlyName string `json:"friendly_name"`
	Transport    string `json:"transport"`
	Address      string `json:"address"`
	Port         int    `json:"port"`
	SerialPort   string `json:"serial_port"`
	Token        string `json:"token"`
	Key          string `json:"key"`
	Version      byte   `json:"version"`
	Customize    string `json:"customize"`
}

func (s *Server) handleAPIAddDevice(w http.ResponseWriter, r *http.Request) {
	var req addDeviceRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.ID == "" {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "id is required"})
		return
	}

	devType, err := parseDeviceType(req.Type)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	dev := &store.Device{
		ID:           req.ID,
		Type:         devType,
		FriendlyName: req.FriendlyName,
		Transport:    req.Transport,
		Address:      req.Address,
		Port:         req.Port,
		SerialPort:   req.SerialPort,
		Token:        req.Token,
		Key:          req.Key,
		Version:      req.Version,
		Customize:    req.Customize,
	}

	if err := s.core.AddDevice(dev); err != nil {
		s.logger.Error("add device", "err", err, "id", req.ID)
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	s.writeJSON(w, http.StatusCreated, s.deviceView(dev))
}

// parseDeviceType parses a hex appliance type like "A1" or "0xAC".
func parseDeviceType(t string) (byte, error) {
	t = strings.TrimPrefix(strings.TrimSpace(t), "0x")
	n, err := strconv.ParseUint(t, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid device type %q", t)
	}
	return byte(n), nil
}

type renameDeviceRequest struct {
	FriendlyName string `json:"friendly_name"`
}

func (s *Server) handleAPIRenameDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req renameDeviceRequest
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	err := s.core.Store().UpdateDevice(id, func(dev *store.Device) error {
		dev.FriendlyName = req.FriendlyName
		return nil
	})
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "device not found"})
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "friendly_name": req.FriendlyName})
}

func (s *Server) handleAPIDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.core.RemoveDevice(id); err != nil {
		s.logger.Error("delete device", "err", err, "id", id)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleAPIDeviceState(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	state, err := s.core.DeviceState(id)
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "device not found"})
		return
	}
	s.writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleAPISetAttributes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req map[string]any
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if len(req) == 0 {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no attributes given"})
		return
	}

	for attr, value := range req {
		if err := s.core.SetAttribute(id, attr, value); err != nil {
			s.logger.Error("set attribute", "err", err, "id", id, "attr", attr)
			s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "device not found"})
			return
		}
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// attributeInfo describes an attribute and, for list-valued ones, its
// selectable labels.
type attributeInfo struct {
	Name    string   `json:"name"`
	Options []string `json:"options,omitempty"`
}

func (s *Server) handleAPIDeviceAttributes(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	dev, err := s.core.Store().GetDevice(id)
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "device not found"})
		return
	}

	attrs, err := s.core.DeviceAttributes(id)
	if err != nil {
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "device not running"})
		return
	}

	infos := make([]attributeInfo, 0, len(attrs))
	for _, attr := range attrs {
		infos = append(infos, attributeInfo{
			Name:    attr,
			Options: appliance.Labels(dev.Type, attr),
		})
	}
	s.writeJSON(w, http.StatusOK, infos)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("writeJSON encode failed", "err", err)
	}
}
