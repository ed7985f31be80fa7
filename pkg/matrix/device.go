package matrix

// DeviceMatrix is the write surface a stamp uses to accumulate its
// contribution into the shared Jacobian and residual. Indices are
// 1-based; index 0 is the ground sink and is never passed through
// here (callers guard node==0 before calling).
type DeviceMatrix interface {
	AddElement(i, j int, value float64) // J[i,j] +=
	AddRHS(i int, value float64)        // F[i] +=
}
