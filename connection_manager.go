package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ConnectionManager persists saved connection profiles and tracks the live
// connections opened from them. A connections.json in the working directory
// overrides the per-user file.
type ConnectionManager struct {
	connections      map[string]*Conn
	savedConnections map[string]*ConnectionInfo
	configPath       string
	maxField         int
}

func NewConnectionManager(maxField int) (*ConnectionManager, error) {
	homeConfig := filepath.Join(os.Getenv("HOME"), configDirName, "connections.json")

	var configPath string
	cwd, err := os.Getwd()
	if err == nil {
		localConfig := filepath.Join(cwd, "connections.json")
		if _, err := os.Stat(localConfig); err == nil {
			configPath = localConfig
		}
	}

	if configPath == "" {
		configPath = homeConfig
	}

	cm := &ConnectionManager{
		connections:      make(map[string]*Conn),
		savedConnections: make(map[string]*ConnectionInfo),
		configPath:       configPath,
		maxField:         maxField,
	}

	if err := os.MkdirAll(filepath.Dir(cm.configPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := cm.LoadSavedConnections(); err != nil {
		return nil, fmt.Errorf("failed to load saved connections: %w", err)
	}

	return cm, nil
}

func (cm *ConnectionManager) Connect(ctx context.Context, connInfo *ConnectionInfo) (*Conn, error) {
	conn, err := OpenConnection(ctx, connInfo, cm.maxField)
	if err != nil {
		return nil, err
	}
	cm.connections[connInfo.Name] = conn
	return conn, nil
}

// Adopt registers an already-open connection, e.g. one produced by an async
// connect that finished after the dialog closed.
func (cm *ConnectionManager) Adopt(name string, conn *Conn) {
	if old, ok := cm.connections[name]; ok && old != conn {
		old.Close()
	}
	cm.connections[name] = conn
}

func (cm *ConnectionManager) GetConnection(name string) (*Conn, bool) {
	conn, ok := cm.connections[name]
	return conn, ok
}

func (cm *ConnectionManager) Disconnect(name string) error {
	if conn, ok := cm.connections[name]; ok {
		if err := conn.Close(); err != nil {
			return err
		}
		delete(cm.connections, name)
	}
	return nil
}

func (cm *ConnectionManager) DisconnectAll() error {
	var lastErr error
	for name := range cm.connections {
		if err := cm.Disconnect(name); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

func (cm *ConnectionManager) SaveConnection(connInfo *ConnectionInfo) error {
	cm.savedConnections[connInfo.Name] = connInfo
	return cm.SaveConnections()
}

func (cm *ConnectionManager) SaveConnections() error {
	connections := make([]*ConnectionInfo, 0, len(cm.savedConnections))
	for _, conn := range cm.savedConnections {
		connections = append(connections, conn)
	}
	sort.Slice(connections, func(i, j int) bool {
		return strings.ToLower(connections[i].Name) < strings.ToLower(connections[j].Name)
	})

	data, err := json.MarshalIndent(connections, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal connections: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write connections file: %w", err)
	}

	return nil
}

func (cm *ConnectionManager) LoadSavedConnections() error {
	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read connections file: %w", err)
	}

	var connections []*ConnectionInfo
	if err := json.Unmarshal(data, &connections); err != nil {
		return fmt.Errorf("failed to unmarshal connections: %w", err)
	}

	for _, conn := range connections {
		if conn.Type == "" {
			conn.Type = ConnectionPostgres
		}
		cm.savedConnections[conn.Name] = conn
	}

	return nil
}

func (cm *ConnectionManager) GetSavedConnections() []*ConnectionInfo {
	connections := make([]*ConnectionInfo, 0, len(cm.savedConnections))
	for _, conn := range cm.savedConnections {
		copyConn := *conn
		connections = append(connections, &copyConn)
	}
	sort.Slice(connections, func(i, j int) bool {
		return strings.ToLower(connections[i].Name) < strings.ToLower(connections[j].Name)
	})
	return connections
}

func (cm *ConnectionManager) DeleteConnection(name string) error {
	delete(cm.savedConnections, name)
	return cm.SaveConnections()
}

func (cm *ConnectionManager) GetConnectionNames() []string {
	names := make([]string, 0, len(cm.connections))
	for name := range cm.connections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (cm *ConnectionManager) Close() error {
	return cm.DisconnectAll()
}
