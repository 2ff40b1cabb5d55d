package internal

import "testing"

func TestCheckSRTPHealthNoSamples(t *testing.T) {
	rateMu.Lock()
	srtpErrorCount, srtpPacketCount = 0, 0
	rateMu.Unlock()

	health := CheckSRTPHealth()
	if health.Status != StatusUp {
		t.Fatalf("expected StatusUp with no samples, got %s", health.Status)
	}
}

func TestCheckSRTPHealthDegraded(t *testing.T) {
	rateMu.Lock()
	srtpPacketCount = 100
	srtpErrorCount = 15
	rateMu.Unlock()

	health := CheckSRTPHealth()
	if health.Status != StatusDegraded {
		t.Fatalf("expected StatusDegraded at 15%% error rate, got %s", health.Status)
	}
}

func TestCheckSRTPHealthDown(t *testing.T) {
	rateMu.Lock()
	srtpPacketCount = 100
	srtpErrorCount = 40
	rateMu.Unlock()

	health := CheckSRTPHealth()
	if health.Status != StatusDown {
		t.Fatalf("expected StatusDown at 40%% error rate, got %s", health.Status)
	}
}

func TestRegisterRegistryHealthCheck(t *testing.T) {
	registry := NewClientRegistry(addr("127.0.0.1:5000"))
	registry.GetOrCreate(addr("127.0.0.1:6001"))

	RegisterRegistryHealthCheck(registry)
	RunHealthChecks()

	health := GetSystemHealth()
	component, ok := health.Components["registry"]
	if !ok {
		t.Fatal("expected a registered \"registry\" health component")
	}
	if component.Details["active_clients"] != "1" {
		t.Fatalf("active_clients = %q, want \"1\"", component.Details["active_clients"])
	}
}
