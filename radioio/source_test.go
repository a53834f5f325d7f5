package radioio

import "testing"

func TestRadioSourceEqualityIsIdentityOnly(t *testing.T) {
	a, _ := NewWiFiAP("aa:bb:cc:dd:ee:ff", 2.4e9)
	b, _ := NewWiFiAP("aa:bb:cc:dd:ee:ff", 5.0e9) // different frequency

	if !a.Equal(b) {
		t.Errorf("sources with same BSSID but different frequency should be equal")
	}

	c, _ := NewWiFiAP("11:22:33:44:55:66", 2.4e9)
	if a.Equal(c) {
		t.Errorf("sources with different BSSID should not be equal")
	}
}

func TestBeaconEquality(t *testing.T) {
	ids := [][]byte{[]byte("uuid"), []byte("major"), []byte("minor")}
	a, _ := NewBeacon(ids, 2.4e9)
	b, _ := NewBeacon(ids, 2.4e9)

	if !a.Equal(b) {
		t.Errorf("beacons with identical identifier parts should be equal")
	}

	other, _ := NewBeacon([][]byte{[]byte("uuid"), []byte("major"), []byte("different")}, 2.4e9)
	if a.Equal(other) {
		t.Errorf("beacons with different identifier parts should not be equal")
	}
}

func TestNewWiFiAPValidation(t *testing.T) {
	if _, err := NewWiFiAP("", 2.4e9); err == nil {
		t.Errorf("empty BSSID should be rejected")
	}
	if _, err := NewWiFiAP("aa:bb:cc:dd:ee:ff", 0); err == nil {
		t.Errorf("zero frequency should be rejected")
	}
}
