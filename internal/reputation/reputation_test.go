package reputation

import "testing"

func TestIsRiskyProxyWithoutVPN(t *testing.T) {
	if !(Verdict{Proxy: true, VPN: false, Risk: 0}).IsRisky() {
		t.Fatal("expected proxy without vpn to be risky")
	}
}

func TestIsRiskyProxyWithVPNAndLowRiskIsSafe(t *testing.T) {
	if (Verdict{Proxy: true, VPN: true, Risk: 10}).IsRisky() {
		t.Fatal("expected proxy with vpn and low risk to be safe")
	}
}

func TestIsRiskyProxyWithVPNButHighRisk(t *testing.T) {
	if !(Verdict{Proxy: true, VPN: true, Risk: 40}).IsRisky() {
		t.Fatal("expected proxy with vpn but risk>33 to be risky")
	}
}

func TestIsRiskyNonProxyHighRisk(t *testing.T) {
	if !(Verdict{Proxy: false, VPN: false, Risk: 80}).IsRisky() {
		t.Fatal("expected non-proxy with risk>66 to be risky")
	}
}

func TestIsRiskyNonProxyModerateRiskIsSafe(t *testing.T) {
	if (Verdict{Proxy: false, VPN: false, Risk: 50}).IsRisky() {
		t.Fatal("expected non-proxy with risk<=66 to be safe")
	}
}
