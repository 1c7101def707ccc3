// Package purge plans reclamation for a storage cache governed by lots.
//
// A Planner runs one cycle per call to Plan:
//
//  1. The directory snapshot is rebuilt into a nested usage report and pushed
//     to the lot authority so every later query sees current numbers.
//  2. Usage is summed over root lots. Below the high watermark the cycle
//     stops with nothing to do.
//  3. The budget (usage minus the low watermark) is handed to each configured
//     policy in order. Complete policies (deletion, expiration) reclaim whole
//     lots; partial policies (opportunistic, dedicated) reclaim only the excess
//     over an allotment.
//  4. Every directory any pass touched is recorded once in a ledger shared by
//     all passes, so bytes committed by one policy are never offered again.
//
// The plan lists directories and byte counts; deleting files is left to the
// caller.
package purge
